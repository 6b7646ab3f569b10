// Copyright The hyp-core-ctl Authors.
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

package log

// Default returns the Logger for the unnamed "default" source.
func Default() Logger {
	return Get("default")
}

// Debug logs a debug message with the default source.
func Debug(format string, args ...interface{}) {
	Default().Debug(format, args...)
}

// Info logs an informational message with the default source.
func Info(format string, args ...interface{}) {
	Default().Info(format, args...)
}

// Warn logs a warning message with the default source.
func Warn(format string, args ...interface{}) {
	Default().Warn(format, args...)
}

// Error logs an error message with the default source.
func Error(format string, args ...interface{}) {
	Default().Error(format, args...)
}

// Fatal logs an error message with the default source and exits.
func Fatal(format string, args ...interface{}) {
	Default().Fatal(format, args...)
}
