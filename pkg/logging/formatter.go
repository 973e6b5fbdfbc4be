package logging

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

// ColoredJSONFormatter renders entries as a single colored line with
// wallet and chain fields pulled to the front.
type ColoredJSONFormatter struct {
	TimestampFormat string
	// SortingFunc orders field keys; nil sorts alphabetically
	SortingFunc func([]string) []string
	// DisableColors turns off ANSI colors, e.g. when not writing to a terminal
	DisableColors bool
	// ShortAddresses hides the middle of address values
	ShortAddresses bool
}

func NewColoredJSONFormatter() *ColoredJSONFormatter {
	return &ColoredJSONFormatter{
		TimestampFormat: time.RFC3339,
		SortingFunc:     walletFieldsFirst,
		ShortAddresses:  true,
	}
}

func (f *ColoredJSONFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	b := entry.Buffer
	if b == nil {
		b = &bytes.Buffer{}
	}

	level := f.paint(levelColor(entry.Level))
	b.WriteString(f.paint(color.New(color.FgYellow)).Sprint(entry.Time.Format(f.TimestampFormat)))
	b.WriteByte(' ')
	b.WriteString(level.Sprintf("%-7s", strings.ToUpper(entry.Level.String())))
	b.WriteByte(' ')
	b.WriteString(level.Sprint(entry.Message))
	b.WriteByte(' ')

	keys := make([]string, 0, len(entry.Data))
	for k := range entry.Data {
		keys = append(keys, k)
	}
	if f.SortingFunc != nil {
		keys = f.SortingFunc(keys)
	} else {
		sort.Strings(keys)
	}

	plain := f.paint(color.New(color.FgWhite))
	for _, k := range keys {
		name := f.paint(color.New(color.FgCyan))
		if highlighted[k] {
			name = f.paint(color.New(color.FgGreen))
		}
		b.WriteString(name.Sprintf("%s=", k))
		b.WriteString(plain.Sprint(f.value(k, entry.Data[k])))
		b.WriteByte(' ')
	}

	b.WriteByte('\n')
	return b.Bytes(), nil
}

func (f *ColoredJSONFormatter) value(key string, v interface{}) string {
	switch v := v.(type) {
	case string:
		if key == "address" && f.ShortAddresses {
			v = shortAddress(v)
		}
		return fmt.Sprintf("%q", v)
	case error:
		return fmt.Sprintf("%q", v.Error())
	}

	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(raw)
}

func (f *ColoredJSONFormatter) paint(c *color.Color) *color.Color {
	if f.DisableColors {
		c.DisableColor()
	}
	return c
}

func levelColor(level logrus.Level) *color.Color {
	switch level {
	case logrus.TraceLevel, logrus.DebugLevel:
		return color.New(color.FgBlue)
	case logrus.InfoLevel:
		return color.New(color.FgGreen)
	case logrus.WarnLevel:
		return color.New(color.FgYellow)
	case logrus.ErrorLevel:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

var highlighted = map[string]bool{
	"address": true,
	"chain":   true,
	"action":  true,
	"tx_hash": true,
	"error":   true,
}

// fieldRank orders the fields that identify a wallet task; unranked fields follow alphabetically
var fieldRank = map[string]int{
	"tick_id": 1,
	"address": 2,
	"chain":   3,
	"action":  4,
	"tx_hash": 5,
	"error":   6,
}

func walletFieldsFirst(keys []string) []string {
	sort.Slice(keys, func(i, j int) bool {
		ri, rj := fieldRank[keys[i]], fieldRank[keys[j]]
		switch {
		case ri != 0 && rj != 0:
			return ri < rj
		case ri != 0 || rj != 0:
			return ri != 0
		default:
			return keys[i] < keys[j]
		}
	})
	return keys
}

func shortAddress(addr string) string {
	if len(addr) < 12 {
		return addr
	}
	return addr[:6] + "..." + addr[len(addr)-4:]
}
