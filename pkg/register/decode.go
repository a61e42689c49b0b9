package register

import (
	"github.com/go-viper/mapstructure/v2"

	bberrors "github.com/bblocks/bblocks/pkg/errors"
)

// decode converts a snake-cased document into out. Enumerated fields are
// validated through their UnmarshalText methods.
func decode(doc map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook:       mapstructure.TextUnmarshallerHookFunc(),
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return bberrors.Wrap(bberrors.ErrCodeInternal, err, "build decoder")
	}
	return dec.Decode(doc)
}

func decodeMetadata(raw map[string]any) (Metadata, error) {
	var md Metadata
	if err := decode(SnakeKeys(raw).(map[string]any), &md); err != nil {
		return Metadata{}, bberrors.Wrap(bberrors.ErrCodeInvalidDocument, err, "decode register")
	}
	return md, nil
}

func decodeSummary(raw any) (*Summary, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, bberrors.New(bberrors.ErrCodeInvalidDocument, "item must be a mapping, got %T", raw)
	}
	s := &Summary{}
	if err := decode(SnakeKeys(m).(map[string]any), s); err != nil {
		return nil, bberrors.Wrap(bberrors.ErrCodeInvalidDocument, err, "decode item %v", m["itemIdentifier"])
	}
	if s.ItemIdentifier == "" {
		return nil, bberrors.New(bberrors.ErrCodeInvalidDocument, "item without itemIdentifier")
	}
	s.normalize()
	return s, nil
}

func decodeBuildingBlock(raw any) (*BuildingBlock, error) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, bberrors.New(bberrors.ErrCodeInvalidDocument, "full record must be a mapping, got %T", raw)
	}
	b := &BuildingBlock{}
	if err := decode(SnakeKeys(m).(map[string]any), b); err != nil {
		return nil, bberrors.Wrap(bberrors.ErrCodeInvalidDocument, err, "decode full record %v", m["itemIdentifier"])
	}
	b.normalize()
	return b, nil
}

func (s *Summary) normalize() {
	s.DependsOn = dedupe(s.DependsOn)
	s.Tags = dedupe(s.Tags)
}
