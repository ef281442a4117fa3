// Package fiscal extracts fiscal-document fields (tax IDs, series, number,
// access key, volumes, weight, total value and freight payer) from either the
// text layer of a printed transport document or an NF-e XML tree.
//
// Both sources produce the same flat Record. Fields that cannot be resolved
// carry the NotFound sentinel rather than being dropped.
package fiscal

import (
	"bytes"
	"encoding/json"
)

// Sentinel values emitted in place of a field value.
const (
	// NotFound marks a field no rule could resolve.
	NotFound = "Não encontrado"
	// Unspecified marks a freight modality code that maps to neither party.
	Unspecified = "Não especificado"
)

// FieldName identifies one extracted field. The string value is the wire key.
type FieldName string

const (
	FieldFreightPayerTaxID     FieldName = "cnpj_pagador_frete"
	FieldSenderTaxID           FieldName = "cnpj_remetente"
	FieldRecipientTaxID        FieldName = "cnpj_destinatario"
	FieldPickupTerminalTaxID   FieldName = "cnpj_terminal_coleta"
	FieldDeliveryTerminalTaxID FieldName = "cnpj_terminal_entrega"
	FieldSeries                FieldName = "serie"
	FieldDocumentNumber        FieldName = "numero_nota"
	FieldAccessKey             FieldName = "chave_acesso"
	FieldQuantity              FieldName = "quantidade"
	FieldNetWeight             FieldName = "peso_liquido"
	FieldTotalValue            FieldName = "valor_nota"
)

// TextFields lists the fields of a text-source record in output order.
var TextFields = []FieldName{
	FieldFreightPayerTaxID,
	FieldSenderTaxID,
	FieldRecipientTaxID,
	FieldSeries,
	FieldDocumentNumber,
	FieldAccessKey,
	FieldQuantity,
	FieldNetWeight,
	FieldTotalValue,
}

// TreeFields lists the fields of an XML-source record in output order.
// The two terminal fields are optional and only present when found.
var TreeFields = []FieldName{
	FieldFreightPayerTaxID,
	FieldSenderTaxID,
	FieldRecipientTaxID,
	FieldPickupTerminalTaxID,
	FieldDeliveryTerminalTaxID,
	FieldSeries,
	FieldDocumentNumber,
	FieldAccessKey,
	FieldQuantity,
	FieldNetWeight,
	FieldTotalValue,
}

// Label returns the human-readable Portuguese label of a field.
func (f FieldName) Label() string {
	switch f {
	case FieldFreightPayerTaxID:
		return "CNPJ/CPF Pagador do Frete"
	case FieldSenderTaxID:
		return "CNPJ/CPF Remetente"
	case FieldRecipientTaxID:
		return "CNPJ/CPF Destinatário"
	case FieldPickupTerminalTaxID:
		return "CNPJ/CPF Terminal de Coleta"
	case FieldDeliveryTerminalTaxID:
		return "CNPJ/CPF Terminal de Entrega"
	case FieldSeries:
		return "Série"
	case FieldDocumentNumber:
		return "Número da Nota"
	case FieldAccessKey:
		return "Chave de Acesso"
	case FieldQuantity:
		return "Quantidade"
	case FieldNetWeight:
		return "Peso Líquido"
	case FieldTotalValue:
		return "Valor da Nota"
	default:
		return string(f)
	}
}

// Optional reports whether the field is omitted from a record when missing.
func (f FieldName) Optional() bool {
	return f == FieldPickupTerminalTaxID || f == FieldDeliveryTerminalTaxID
}

// IsField reports whether name is a known field.
func IsField(name string) bool {
	for _, f := range TreeFields {
		if string(f) == name {
			return true
		}
	}
	return false
}

// Field is one entry of a Record.
type Field struct {
	Name  FieldName
	Value string
}

// Found reports whether the field holds an extracted value.
func (f Field) Found() bool {
	return f.Value != NotFound && f.Value != Unspecified && f.Value != ""
}

// Record is the immutable result of one extraction. Field order mirrors
// declaration order and survives JSON encoding.
type Record struct {
	fields []Field
}

// Get returns the value stored for name.
func (r *Record) Get(name FieldName) (string, bool) {
	if r == nil {
		return "", false
	}
	for _, f := range r.fields {
		if f.Name == name {
			return f.Value, true
		}
	}
	return "", false
}

// Value returns the value stored for name, or NotFound when absent.
func (r *Record) Value(name FieldName) string {
	if v, ok := r.Get(name); ok {
		return v
	}
	return NotFound
}

// Fields returns a copy of the record entries in order.
func (r *Record) Fields() []Field {
	if r == nil {
		return nil
	}
	out := make([]Field, len(r.fields))
	copy(out, r.fields)
	return out
}

// Len returns the number of fields in the record.
func (r *Record) Len() int {
	if r == nil {
		return 0
	}
	return len(r.fields)
}

// FoundCount returns how many fields hold an extracted value.
func (r *Record) FoundCount() int {
	n := 0
	for _, f := range r.Fields() {
		if f.Found() {
			n++
		}
	}
	return n
}

// Map returns the record as a plain map, losing field order.
func (r *Record) Map() map[string]string {
	m := make(map[string]string, r.Len())
	for _, f := range r.Fields() {
		m[string(f.Name)] = f.Value
	}
	return m
}

// MarshalJSON encodes the record as a JSON object in field order.
func (r *Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(string(f.Name))
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(f.Value)
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// recordBuilder accumulates fields before freezing them into a Record.
type recordBuilder struct {
	fields []Field
}

func (b *recordBuilder) set(name FieldName, value string) {
	if value == "" {
		value = NotFound
	}
	for i := range b.fields {
		if b.fields[i].Name == name {
			b.fields[i].Value = value
			return
		}
	}
	b.fields = append(b.fields, Field{Name: name, Value: value})
}

// build orders the collected fields by the given declaration order.
func (b *recordBuilder) build(order []FieldName) *Record {
	out := make([]Field, 0, len(b.fields))
	for _, name := range order {
		for _, f := range b.fields {
			if f.Name == name {
				out = append(out, f)
				break
			}
		}
	}
	return &Record{fields: out}
}
