package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// PayloadKind tags the variant held by an ActionPayload.
type PayloadKind string

const (
	PayloadNone     PayloadKind = ""
	PayloadTransfer PayloadKind = "transfer"
)

// TransferPayload carries the destination of a transfer action.
type TransferPayload struct {
	TargetOrgID uuid.UUID `json:"targetOrgId"`
}

// ActionPayload is the type-specific data of an action. The zero value holds
// no payload.
type ActionPayload struct {
	transfer *TransferPayload
}

func NewTransferPayload(targetOrgID uuid.UUID) ActionPayload {
	return ActionPayload{transfer: &TransferPayload{TargetOrgID: targetOrgID}}
}

func (p ActionPayload) Kind() PayloadKind {
	if p.transfer != nil {
		return PayloadTransfer
	}
	return PayloadNone
}

func (p ActionPayload) IsNone() bool {
	return p.Kind() == PayloadNone
}

// Transfer returns the transfer variant, if held.
func (p ActionPayload) Transfer() (TransferPayload, bool) {
	if p.transfer == nil {
		return TransferPayload{}, false
	}
	return *p.transfer, true
}

func (p ActionPayload) TargetOrganization() (uuid.UUID, bool) {
	t, ok := p.Transfer()
	return t.TargetOrgID, ok
}

type payloadWire struct {
	Kind        PayloadKind `json:"kind"`
	TargetOrgID *uuid.UUID  `json:"targetOrgId,omitempty"`
}

func (p ActionPayload) MarshalJSON() ([]byte, error) {
	switch p.Kind() {
	case PayloadTransfer:
		target := p.transfer.TargetOrgID
		return json.Marshal(payloadWire{Kind: PayloadTransfer, TargetOrgID: &target})
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, a tagged object, or an untagged object with a
// targetOrgId which is read as a transfer.
func (p *ActionPayload) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*p = ActionPayload{}
		return nil
	}

	var wire payloadWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("invalid action payload: %w", err)
	}

	switch wire.Kind {
	case PayloadTransfer:
		if wire.TargetOrgID == nil || *wire.TargetOrgID == uuid.Nil {
			return fmt.Errorf("invalid action payload: targetOrgId is required")
		}
		*p = NewTransferPayload(*wire.TargetOrgID)
	case PayloadNone:
		if wire.TargetOrgID != nil && *wire.TargetOrgID != uuid.Nil {
			*p = NewTransferPayload(*wire.TargetOrgID)
			return nil
		}
		*p = ActionPayload{}
	default:
		return fmt.Errorf("invalid action payload: unknown kind %q", wire.Kind)
	}
	return nil
}

func (p ActionPayload) Value() (driver.Value, error) {
	if p.IsNone() {
		return nil, nil
	}
	return p.MarshalJSON()
}

func (p *ActionPayload) Scan(src interface{}) error {
	switch data := src.(type) {
	case nil:
		*p = ActionPayload{}
		return nil
	case []byte:
		return p.UnmarshalJSON(data)
	case string:
		return p.UnmarshalJSON([]byte(data))
	default:
		return fmt.Errorf("cannot scan %T into ActionPayload", src)
	}
}
