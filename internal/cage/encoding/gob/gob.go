// Copyright (C) 2019 The CodeActual Go Environment Authors.
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package gob

import (
	std_gob "encoding/gob"
	"os"

	"github.com/pkg/errors"
)

// EncodeToFile replaces the file's content with the encoded value.
func EncodeToFile(name string, value interface{}) (err error) {
	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return errors.Wrapf(err, "failed to open file [%s] for encoding", name)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = errors.Wrapf(closeErr, "failed to close file [%s] after encoding", name)
		}
	}()

	if err = std_gob.NewEncoder(f).Encode(value); err != nil {
		return errors.Wrapf(err, "failed to encode value to file [%s]", name)
	}
	return nil
}

// DecodeFromFile decodes the file's content into value, which must be a pointer to the
// same type that was encoded.
func DecodeFromFile(name string, value interface{}) error {
	f, err := os.Open(name) // #nosec G304
	if err != nil {
		return errors.Wrapf(err, "failed to open file [%s] for decoding", name)
	}
	defer f.Close()

	if err = std_gob.NewDecoder(f).Decode(value); err != nil {
		return errors.Wrapf(err, "failed to decode file [%s]", name)
	}
	return nil
}
