// Package comms is the wire layer: head-tagged JSON frames, plus the two
// error taxonomies that cross the network. Rule violations travel as
// WireError and map back to game sentinels; transport failures are
// NetworkError and never pretend to be anything else.
package comms

import (
	"encoding/json"
	"io"
	"strings"
)

// Head is the routing tag of a message, colon-separated, e.g.
// "request:3:action" or "update".
type Head string

func (h Head) Fields() []string {
	return strings.Split(string(h), ":")
}

// For constructs a head from parts.
func For(parts ...string) Head {
	return Head(strings.Join(parts, ":"))
}

// Message is one frame: a head and a raw JSON body.
type Message struct {
	Head Head            `json:"head"`
	Data json.RawMessage `json:"data"`
}

func (m Message) Type() string {
	return m.Head.Fields()[0]
}

// Encode makes a message out of anything JSON-able.
func Encode(head string, v interface{}) (Message, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return Message{}, err
	}
	return Message{Head: Head(head), Data: data}, nil
}

// Decode unpacks a message body.
func Decode(m Message, v interface{}) error {
	return json.Unmarshal(m.Data, v)
}

// Encoder writes frames to a stream.
type Encoder struct {
	enc *json.Encoder
}

func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{enc: json.NewEncoder(w)}
}

func (e *Encoder) Encode(head string, v interface{}) error {
	msg, err := Encode(head, v)
	if err != nil {
		return err
	}
	return e.enc.Encode(msg)
}

// Send writes an already-built message.
func (e *Encoder) Send(msg Message) error {
	return e.enc.Encode(msg)
}

// Decoder reads frames from a stream.
type Decoder struct {
	dec *json.Decoder
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{dec: json.NewDecoder(r)}
}

func (d *Decoder) Decode() (Message, error) {
	msg := Message{}
	err := d.dec.Decode(&msg)
	return msg, err
}
