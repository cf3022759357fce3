// Copyright 2020 Fugue, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package events

import "github.com/sirupsen/logrus"

// Logger publishes every Event as a structured logrus entry, the default
// subscriber when no external queue is configured.
type Logger struct {
	log *logrus.Logger
}

// NewLogger returns a Logger writing through log.
func NewLogger(log *logrus.Logger) *Logger {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Logger{log: log}
}

// Publish logs e at a level determined by its Kind.
func (l *Logger) Publish(e Event) error {
	entry := l.log.WithFields(logrus.Fields{
		"build_id": e.BuildID,
		"rule":     e.Rule,
		"job_id":   e.JobID,
	})
	switch e.Kind {
	case Failed:
		entry.WithField("error", e.Error).Error(e.Message)
	case Warning:
		entry.Warn(e.Message)
	default:
		entry.Info(e.Message)
	}
	return nil
}
