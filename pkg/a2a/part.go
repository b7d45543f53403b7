package a2a

import (
	"encoding/json"
	"fmt"
)

// PartKind — дискриминатор варианта Part.
type PartKind string

const (
	PartKindText PartKind = "text"
	PartKindData PartKind = "data"
	PartKindFile PartKind = "file"
)

// FileContent — файловая часть. Bytes хранит Base64-строку, как в протоколе.
type FileContent struct {
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	Bytes    string `json:"bytes,omitempty"`
	URI      string `json:"uri,omitempty"`
}

// Part — tagged union над {text | data | file}. Вариант выбирается при
// десериализации по полю "type"; дальше по коду никаких строковых проверок.
// Неизвестный тип не валит разбор: Kind сохраняет исходное значение,
// а обработка решает, что с ним делать.
type Part struct {
	Kind     PartKind       `json:"-"`
	Text     string         `json:"-"`
	Data     map[string]any `json:"-"`
	File     *FileContent   `json:"-"`
	Metadata map[string]any `json:"-"`
}

// NewTextPart собирает текстовую часть.
func NewTextPart(text string) Part {
	return Part{Kind: PartKindText, Text: text}
}

// NewDataPart собирает структурную часть.
func NewDataPart(data map[string]any) Part {
	return Part{Kind: PartKindData, Data: data}
}

type wirePart struct {
	Type     string         `json:"type"`
	Text     string         `json:"text,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
	File     *FileContent   `json:"file,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func (p Part) MarshalJSON() ([]byte, error) {
	w := wirePart{Type: string(p.Kind), Metadata: p.Metadata}
	switch p.Kind {
	case PartKindText:
		w.Text = p.Text
	case PartKindData:
		w.Data = p.Data
	case PartKindFile:
		w.File = p.File
	default:
		return nil, fmt.Errorf("a2a: cannot marshal part of kind %q", p.Kind)
	}
	return json.Marshal(w)
}

func (p *Part) UnmarshalJSON(raw []byte) error {
	var w wirePart
	if err := json.Unmarshal(raw, &w); err != nil {
		return fmt.Errorf("a2a: malformed part: %w", err)
	}
	p.Kind = PartKind(w.Type)
	p.Metadata = w.Metadata
	switch p.Kind {
	case PartKindText:
		p.Text = w.Text
	case PartKindData:
		p.Data = w.Data
	case PartKindFile:
		p.File = w.File
	}
	// Неизвестный kind оставляем как есть: конвертация частей обязана быть
	// тотальной и вернет placeholder вместо ошибки.
	return nil
}
