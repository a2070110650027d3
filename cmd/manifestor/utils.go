/*
Copyright 2021 Stefan Prodan

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/go-logr/logr"
	"github.com/olekukonko/tablewriter"
)

type stderrLogger struct {
	stderr io.Writer
}

func (l stderrLogger) Println(a ...interface{}) {
	fmt.Fprintln(l.stderr, a...)
}

// stderrSink is a logr sink that writes the library logs to the stderr logger,
// errors are prefixed with '✗' and verbose messages are dropped.
type stderrSink struct {
	name   string
	values []interface{}
}

var _ logr.LogSink = stderrSink{}

func newLogr() logr.Logger {
	return logr.New(stderrSink{})
}

func (s stderrSink) Init(logr.RuntimeInfo) {}

func (s stderrSink) Enabled(level int) bool {
	return level == 0
}

func (s stderrSink) Info(_ int, msg string, keysAndValues ...interface{}) {
	logger.Println(s.format(msg, keysAndValues))
}

func (s stderrSink) Error(err error, msg string, keysAndValues ...interface{}) {
	logger.Println(`✗`, s.format(msg, keysAndValues), err)
}

func (s stderrSink) WithValues(keysAndValues ...interface{}) logr.LogSink {
	values := make([]interface{}, 0, len(s.values)+len(keysAndValues))
	values = append(values, s.values...)
	s.values = append(values, keysAndValues...)
	return s
}

func (s stderrSink) WithName(name string) logr.LogSink {
	if s.name != "" {
		name = s.name + "/" + name
	}
	s.name = name
	return s
}

func (s stderrSink) format(msg string, keysAndValues []interface{}) string {
	var sb strings.Builder
	if s.name != "" {
		sb.WriteString(s.name + ": ")
	}
	sb.WriteString(msg)
	kv := append(append([]interface{}{}, s.values...), keysAndValues...)
	for i := 0; i+1 < len(kv); i += 2 {
		sb.WriteString(fmt.Sprintf(" %v=%v", kv[i], kv[i+1]))
	}
	return sb.String()
}

func printTable(writer io.Writer, header []string, rows [][]string) {
	table := tablewriter.NewWriter(writer)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	table.SetNoWhiteSpace(true)
	table.AppendBulk(rows)
	table.Render()
}
