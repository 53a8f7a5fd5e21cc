/**
 * Copyright 2026 aou-systems
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

// Package log provides leveled logging for umpfd. Time/date are left
// off by default since a supervisor (systemd, runit) usually adds
// them; see SetLogDateTime to turn that back on.
//
// Uses syslog-style prefixes: https://www.freedesktop.org/software/systemd/man/sd-daemon.html
package log

import (
	"fmt"
	"io"
	"log"
	"os"
)

var logDateTime bool

var (
	WarnWriter io.Writer = os.Stderr
	ErrWriter  io.Writer = os.Stderr
	CritWriter io.Writer = os.Stderr
	InfoWriter io.Writer = os.Stderr
)

var (
	InfoPrefix = "<6>[INFO]     "
	WarnPrefix = "<4>[WARNING]  "
	ErrPrefix  = "<3>[ERROR]    "
	CritPrefix = "<2>[CRITICAL] "
)

var (
	InfoLog = log.New(InfoWriter, InfoPrefix, 0)
	WarnLog = log.New(WarnWriter, WarnPrefix, 0)
	ErrLog  = log.New(ErrWriter, ErrPrefix, log.Lshortfile)
	CritLog = log.New(CritWriter, CritPrefix, log.Lshortfile)

	InfoTimeLog = log.New(InfoWriter, InfoPrefix, log.LstdFlags)
	WarnTimeLog = log.New(WarnWriter, WarnPrefix, log.LstdFlags)
	ErrTimeLog  = log.New(ErrWriter, ErrPrefix, log.LstdFlags|log.Lshortfile)
	CritTimeLog = log.New(CritWriter, CritPrefix, log.LstdFlags|log.Lshortfile)
)

// SetLogDateTime turns timestamp prefixes on or off at runtime.
func SetLogDateTime(v bool) { logDateTime = v }

func Info(v ...interface{}) {
	if logDateTime {
		InfoTimeLog.Output(2, fmt.Sprint(v...))
	} else {
		InfoLog.Output(2, fmt.Sprint(v...))
	}
}

func Warn(v ...interface{}) {
	if logDateTime {
		WarnTimeLog.Output(2, fmt.Sprint(v...))
	} else {
		WarnLog.Output(2, fmt.Sprint(v...))
	}
}

func Error(v ...interface{}) {
	if logDateTime {
		ErrTimeLog.Output(2, fmt.Sprint(v...))
	} else {
		ErrLog.Output(2, fmt.Sprint(v...))
	}
}

func Crit(v ...interface{}) {
	if logDateTime {
		CritTimeLog.Output(2, fmt.Sprint(v...))
	} else {
		CritLog.Output(2, fmt.Sprint(v...))
	}
}

// Fatal logs at Crit and exits 1, for unrecoverable startup errors
// (bad config, cannot bind listener).
func Fatal(v ...interface{}) {
	Crit(v...)
	os.Exit(1)
}

func Infof(format string, v ...interface{}) {
	if logDateTime {
		InfoTimeLog.Output(2, fmt.Sprintf(format, v...))
	} else {
		InfoLog.Output(2, fmt.Sprintf(format, v...))
	}
}

func Warnf(format string, v ...interface{}) {
	if logDateTime {
		WarnTimeLog.Output(2, fmt.Sprintf(format, v...))
	} else {
		WarnLog.Output(2, fmt.Sprintf(format, v...))
	}
}

func Errorf(format string, v ...interface{}) {
	if logDateTime {
		ErrTimeLog.Output(2, fmt.Sprintf(format, v...))
	} else {
		ErrLog.Output(2, fmt.Sprintf(format, v...))
	}
}

func Critf(format string, v ...interface{}) {
	if logDateTime {
		CritTimeLog.Output(2, fmt.Sprintf(format, v...))
	} else {
		CritLog.Output(2, fmt.Sprintf(format, v...))
	}
}

func Fatalf(format string, v ...interface{}) {
	Critf(format, v...)
	os.Exit(1)
}
