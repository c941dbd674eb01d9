// Copyright 2025 Google LLC
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

package logger_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/google/logfuse/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestLevelFilteringTextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger.SetFormat("text")
	logger.SetOutput(&buf)
	logger.SetLevel(logger.WARNING)

	logger.Infof("info message")
	assert.Empty(t, buf.String())

	logger.Warnf("warn message")
	out := buf.String()
	assert.Contains(t, out, "severity=WARNING")
	assert.Contains(t, out, "warn message")
}

func TestLevelFilteringOff(t *testing.T) {
	var buf bytes.Buffer
	logger.SetFormat("text")
	logger.SetOutput(&buf)
	logger.SetLevel(logger.OFF)

	logger.Errorf("should not appear")
	assert.Empty(t, buf.String())
}

func TestJSONFormatIncludesSeverityAndMessage(t *testing.T) {
	var buf bytes.Buffer
	logger.SetFormat("json")
	logger.SetOutput(&buf)
	logger.SetLevel(logger.TRACE)

	logger.Tracef("trace message")
	out := buf.String()
	assert.True(t, strings.Contains(out, `"severity":"TRACE"`))
	assert.True(t, strings.Contains(out, `"message":"trace message"`))
}

func TestUnknownFormatDefaultsToJSON(t *testing.T) {
	logger.SetFormat("nonsense")
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	logger.SetLevel(logger.INFO)

	logger.Infof("hi")
	assert.Contains(t, buf.String(), `"severity":"INFO"`)
}
