package register

import (
	bberrors "github.com/bblocks/bblocks/pkg/errors"
)

// Status is the lifecycle status of a building block.
type Status string

const (
	StatusRetired          Status = "retired"
	StatusSuperseded       Status = "superseded"
	StatusExperimental     Status = "experimental"
	StatusStable           Status = "stable"
	StatusUnderDevelopment Status = "under-development"
	StatusInvalid          Status = "invalid"
	StatusReserved         Status = "reserved"
	StatusSubmitted        Status = "submitted"
)

// Statuses lists every valid status.
var Statuses = []Status{
	StatusRetired, StatusSuperseded, StatusExperimental, StatusStable,
	StatusUnderDevelopment, StatusInvalid, StatusReserved, StatusSubmitted,
}

// Valid reports whether s is one of [Statuses].
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

func (s *Status) UnmarshalText(text []byte) error {
	v := Status(text)
	if !v.Valid() {
		return bberrors.New(bberrors.ErrCodeInvalidEnum, "unknown status %q", string(text))
	}
	*s = v
	return nil
}

// ItemClass classifies what kind of building block an item is.
type ItemClass string

const (
	ItemClassSchema    ItemClass = "schema"
	ItemClassDatatype  ItemClass = "datatype"
	ItemClassPath      ItemClass = "path"
	ItemClassParameter ItemClass = "parameter"
	ItemClassHeader    ItemClass = "header"
	ItemClassCookie    ItemClass = "cookie"
	ItemClassResponse  ItemClass = "response"
	ItemClassAPI       ItemClass = "api"
	ItemClassModel     ItemClass = "model"
)

// ItemClasses lists every valid item class.
var ItemClasses = []ItemClass{
	ItemClassSchema, ItemClassDatatype, ItemClassPath, ItemClassParameter,
	ItemClassHeader, ItemClassCookie, ItemClassResponse, ItemClassAPI, ItemClassModel,
}

// Valid reports whether c is one of [ItemClasses].
func (c ItemClass) Valid() bool {
	for _, v := range ItemClasses {
		if c == v {
			return true
		}
	}
	return false
}

func (c *ItemClass) UnmarshalText(text []byte) error {
	v := ItemClass(text)
	if !v.Valid() {
		return bberrors.New(bberrors.ErrCodeInvalidEnum, "unknown item class %q", string(text))
	}
	*c = v
	return nil
}

// Stage says when a semantic uplift step runs: before the JSON-LD context is
// applied (on tree data) or after (on the graph).
type Stage string

const (
	StagePre  Stage = "pre"
	StagePost Stage = "post"
)

// Valid reports whether s is pre or post.
func (s Stage) Valid() bool {
	return s == StagePre || s == StagePost
}

func (s *Stage) UnmarshalText(text []byte) error {
	v := Stage(text)
	if !v.Valid() {
		return bberrors.New(bberrors.ErrCodeInvalidEnum, "unknown step stage %q (must be pre or post)", string(text))
	}
	*s = v
	return nil
}
