// Package control parses and builds the runtime messages that start, stop
// and reconfigure platform sessions.
package control

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/sw33tLie/shortscroll/pkg/platforms"
	"github.com/sw33tLie/shortscroll/pkg/settings"
)

type Action string

const (
	Start  Action = "start"
	Stop   Action = "stop"
	Update Action = "update"
)

var (
	ErrUnknownPlatform = errors.New("unknown platform")
	ErrUnknownAction   = errors.New("unknown action")
	ErrMalformed       = errors.New("malformed control message")
)

// Message is a control message addressed to one platform.
type Message struct {
	Platform platforms.ID
	Action   Action
	Override settings.Override
}

func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case Start, Stop, Update:
		return a, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Parse decodes a JSON control message. Numeric fields may be JSON numbers
// or numeric strings, and "intervalSeconds" is accepted for "interval".
func Parse(data []byte) (Message, error) {
	if !gjson.ValidBytes(data) {
		return Message{}, ErrMalformed
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return Message{}, fmt.Errorf("%w: not an object", ErrMalformed)
	}

	var msg Message
	id, err := platforms.Parse(root.Get("platform").String())
	if err != nil {
		return Message{}, fmt.Errorf("%w: %q", ErrUnknownPlatform, root.Get("platform").String())
	}
	msg.Platform = id

	if msg.Action, err = ParseAction(root.Get("action").String()); err != nil {
		return Message{}, err
	}

	interval := root.Get("interval")
	if !interval.Exists() {
		interval = root.Get("intervalSeconds")
	}
	if msg.Override.IntervalSeconds, err = intField("interval", interval); err != nil {
		return Message{}, err
	}
	if msg.Override.ScrollAfterSeconds, err = intField("scrollAfterSeconds", root.Get("scrollAfterSeconds")); err != nil {
		return Message{}, err
	}
	if msg.Override.DetectVideoEnd, err = boolField("detectVideoEnd", root.Get("detectVideoEnd")); err != nil {
		return Message{}, err
	}
	return msg, nil
}

// intField reads a seconds field. Values above settings.MaxSeconds are
// rejected; negative ones are left for settings.Normalize.
func intField(name string, r gjson.Result) (*int, error) {
	var v int
	switch r.Type {
	case gjson.Null:
		return nil, nil
	case gjson.Number:
		if r.Num > settings.MaxSeconds {
			return nil, fmt.Errorf("%w: %s=%s is above %d", ErrMalformed, name, r.Raw, settings.MaxSeconds)
		}
		v = int(r.Int())
	case gjson.String:
		n, err := strconv.Atoi(strings.TrimSpace(r.Str))
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q is not a number", ErrMalformed, name, r.Str)
		}
		v = n
	default:
		return nil, fmt.Errorf("%w: %s has type %s", ErrMalformed, name, r.Type)
	}
	if v > settings.MaxSeconds {
		return nil, fmt.Errorf("%w: %s=%d is above %d", ErrMalformed, name, v, settings.MaxSeconds)
	}
	return &v, nil
}

func boolField(name string, r gjson.Result) (*bool, error) {
	switch r.Type {
	case gjson.Null:
		return nil, nil
	case gjson.True, gjson.False:
		v := r.Bool()
		return &v, nil
	case gjson.String:
		v, err := strconv.ParseBool(strings.TrimSpace(r.Str))
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q is not a boolean", ErrMalformed, name, r.Str)
		}
		return &v, nil
	}
	return nil, fmt.Errorf("%w: %s has type %s", ErrMalformed, name, r.Type)
}

// JSON encodes m in the wire format accepted by Parse. Unset overrides are
// omitted.
func (m Message) JSON() ([]byte, error) {
	out := []byte(`{}`)
	var err error
	set := func(path string, v any) {
		if err != nil {
			return
		}
		out, err = sjson.SetBytes(out, path, v)
	}
	set("platform", string(m.Platform))
	set("action", string(m.Action))
	if m.Override.IntervalSeconds != nil {
		set("interval", *m.Override.IntervalSeconds)
	}
	if m.Override.DetectVideoEnd != nil {
		set("detectVideoEnd", *m.Override.DetectVideoEnd)
	}
	if m.Override.ScrollAfterSeconds != nil {
		set("scrollAfterSeconds", *m.Override.ScrollAfterSeconds)
	}
	if err != nil {
		return nil, fmt.Errorf("encode control message: %w", err)
	}
	return out, nil
}

func (m Message) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", m.Platform, m.Action)
	if p := m.Override.IntervalSeconds; p != nil {
		fmt.Fprintf(&b, " interval=%d", *p)
	}
	if p := m.Override.DetectVideoEnd; p != nil {
		fmt.Fprintf(&b, " detectVideoEnd=%t", *p)
	}
	if p := m.Override.ScrollAfterSeconds; p != nil {
		fmt.Fprintf(&b, " scrollAfterSeconds=%d", *p)
	}
	return b.String()
}
