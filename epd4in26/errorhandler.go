// Copyright 2024 The Epaper Authors. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package epd4in26

import (
	"time"

	"periph.io/x/conn/v3/gpio"
)

// errorHandler is a wrapper for error management. Once an error is recorded
// all further bus operations are skipped. A busy-wait timeout is tracked
// separately so the running sequence still completes; it is surfaced by
// result() only when nothing worse happened.
type errorHandler struct {
	d        Dev
	err      error
	timedOut bool
}

func (eh *errorHandler) result() error {
	if eh.err != nil {
		return eh.err
	}
	if eh.timedOut {
		return ErrBusyTimeout
	}
	return nil
}

func (eh *errorHandler) rstOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.rst.Out(l)
}

func (eh *errorHandler) cTx(w []byte, r []byte) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.c.Tx(w, r)
}

func (eh *errorHandler) dcOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.dc.Out(l)
}

func (eh *errorHandler) csOut(l gpio.Level) {
	if eh.err != nil {
		return
	}
	eh.err = eh.d.cs.Out(l)
}

// waitUntilIdle polls the busy line until the controller reports idle. The
// panel may legitimately take seconds on a cold panel or a large window, so
// exceeding the ceiling is recorded rather than aborting the sequence.
func (eh *errorHandler) waitUntilIdle() {
	if eh.err != nil {
		return
	}

	deadline := time.Now().Add(busyTimeout)
	for eh.d.busy.Read() == gpio.High {
		if time.Now().After(deadline) {
			eh.timedOut = true
			return
		}
		time.Sleep(busyPollInterval)
	}
}

func (eh *errorHandler) sendCommand(cmd byte) {
	if eh.err != nil {
		return
	}

	eh.dcOut(gpio.Low)
	eh.csOut(gpio.Low)
	eh.cTx([]byte{cmd}, nil)
	eh.csOut(gpio.High)
}

func (eh *errorHandler) sendData(data []byte) {
	if eh.err != nil {
		return
	}

	eh.dcOut(gpio.High)
	eh.csOut(gpio.Low)
	eh.cTx(data, nil)
	eh.csOut(gpio.High)
}

func (eh *errorHandler) sendByte(data byte) {
	eh.sendData([]byte{data})
}

func (eh *errorHandler) readData(data []byte) {
	if eh.err != nil {
		return
	}

	eh.dcOut(gpio.High)
	eh.csOut(gpio.Low)
	eh.cTx(nil, data)
	eh.csOut(gpio.High)
}
