// Package wire holds the binary encoding shared by listings, caches and package manifests.
package wire

import (
	"reflect"

	"github.com/fxamacker/cbor/v2"
	"go.trai.ch/gany/internal/adapters/schema"
	"go.trai.ch/gany/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("wire: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic("wire: CBOR decoder initialization failed: " + err.Error())
	}
}

// Marshal encodes v with deterministic CBOR.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// EncodeListing encodes a repository listing for publication.
func EncodeListing(l *domain.Listing) ([]byte, error) {
	data, err := Marshal(l)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to encode listing")
	}
	return data, nil
}

// DecodeListing decodes a listing published either as CBOR or as YAML and validates it.
func DecodeListing(data []byte) (*domain.Listing, error) {
	var l domain.Listing
	if err := Unmarshal(data, &l); err != nil {
		l = domain.Listing{}
		if yerr := yaml.Unmarshal(data, &l); yerr != nil {
			return nil, zerr.With(zerr.Wrap(domain.ErrStoreCorruption, "listing is neither CBOR nor YAML"), "cause", err.Error())
		}
	}
	if err := schema.Validate(l, domain.ErrStoreCorruption); err != nil {
		return nil, err
	}
	return &l, nil
}
