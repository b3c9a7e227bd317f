package typeid

import (
	"fmt"

	"go.jetify.com/typeid/v2"
)

const (
	PrefixLayer            = "layer"
	PrefixRegionalGuidance = "rg"
	PrefixInpaintMask      = "im"
	PrefixControlAdapter   = "ca"
	PrefixObject           = "obj"
	PrefixImage            = "img"
	PrefixAction           = "act"
)

func New(prefix string) string {
	id := typeid.MustGenerate(prefix)
	return id.String()
}

func NewLayerID() string            { return New(PrefixLayer) }
func NewRegionalGuidanceID() string { return New(PrefixRegionalGuidance) }
func NewInpaintMaskID() string      { return New(PrefixInpaintMask) }
func NewControlAdapterID() string   { return New(PrefixControlAdapter) }
func NewObjectID() string           { return New(PrefixObject) }
func NewImageID() string            { return New(PrefixImage) }
func NewActionID() string           { return New(PrefixAction) }

func Validate(id, expectedPrefix string) error {
	parsed, err := typeid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid typeid %q: %w", id, err)
	}
	if parsed.Prefix() != expectedPrefix {
		return fmt.Errorf("expected prefix %q but got %q in id %q", expectedPrefix, parsed.Prefix(), id)
	}
	return nil
}
