// Copyright 2025 The Go A2A Authors
// SPDX-License-Identifier: Apache-2.0

package initializer

import (
	aiplatformpbv1 "cloud.google.com/go/aiplatform/apiv1/aiplatformpb"
	"cloud.google.com/go/aiplatform/apiv1beta1/aiplatformpb"
)

func (c *Config) encryptionKeyOr(keyName string) string {
	if keyName != "" {
		return keyName
	}
	return c.EncryptionKey()
}

// EncryptionSpec returns the v1beta1 encryption spec of keyName, or of the
// default key when keyName is empty. It returns nil when neither is set.
func (c *Config) EncryptionSpec(keyName string) *aiplatformpb.EncryptionSpec {
	key := c.encryptionKeyOr(keyName)
	if key == "" {
		return nil
	}
	return &aiplatformpb.EncryptionSpec{KmsKeyName: key}
}

// EncryptionSpecV1 is like [Config.EncryptionSpec] for the v1 API.
func (c *Config) EncryptionSpecV1(keyName string) *aiplatformpbv1.EncryptionSpec {
	key := c.encryptionKeyOr(keyName)
	if key == "" {
		return nil
	}
	return &aiplatformpbv1.EncryptionSpec{KmsKeyName: key}
}
