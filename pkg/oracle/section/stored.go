package section

import (
	"bytes"
	"encoding/json"
)

// StoredVersion tags persisted assistant content that carries sections.
const StoredVersion = 2

type storedEnvelope struct {
	Version  int               `json:"_version"`
	Sections map[string]string `json:"sections"`
	RawText  string            `json:"rawText"`
}

// EncodeStored serializes the full section set as
// {"_version":2,"sections":{...},"rawText":"..."}, sections in reading order.
func EncodeStored(s Sections, raw string) (string, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"_version":2,"sections":{`)
	for i, sec := range s.Visible() {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(string(sec.Key))
		if err != nil {
			return "", err
		}
		text, err := json.Marshal(sec.Text)
		if err != nil {
			return "", err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(text)
	}
	buf.WriteString(`},"rawText":`)
	rawJSON, err := json.Marshal(raw)
	if err != nil {
		return "", err
	}
	buf.Write(rawJSON)
	buf.WriteByte('}')
	return buf.String(), nil
}

// DecodeStored reads content written by EncodeStored. Content that is not
// JSON (plain-text messages) returns an error; JSON without a version 2
// envelope yields an unsectioned result.
func DecodeStored(content string) (Sections, string, error) {
	var env storedEnvelope
	if err := json.Unmarshal([]byte(content), &env); err != nil {
		return Sections{Raw: content}, content, err
	}
	if env.Version != StoredVersion || env.Sections == nil {
		return Sections{Raw: env.RawText}, env.RawText, nil
	}

	values := make(map[Key]string, len(env.Sections))
	for k, v := range env.Sections {
		values[Key(k)] = v
	}
	s := New(values)
	s.Raw = env.RawText
	return s, env.RawText, nil
}
