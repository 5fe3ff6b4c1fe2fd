package client

import (
	"encoding/json"
	"os"

	"github.com/mdouchement/lostfound/pkg/liblf"
	sargon2 "github.com/mdouchement/simple-argon2"
	"github.com/pkg/errors"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/chacha20poly1305"
)

const (
	saltKeyLength   = 16
	credentialsfile = ".lostfound"
)

// A Config holds client's credentials.
type Config struct {
	Endpoint string      `json:"endpoint"`
	Email    string      `json:"email"`
	Token    liblf.Token `json:"token"`
}

// Exists returns true if a credential file is present in the current directory.
func Exists() bool {
	_, err := os.Stat(credentialsfile)
	return err == nil
}

// Remove removes the credential files from the current directory.
func Remove() error {
	return os.Remove(credentialsfile)
}

// Seal encrypts the configuration with the given passphrase.
// The output is salt || nonce || ciphertext.
func Seal(cfg Config, passphrase []byte) ([]byte, error) {
	payload, err := json.Marshal(cfg)
	if err != nil {
		return nil, errors.Wrap(err, "could not serialize config")
	}

	//
	// Key derivation of passphrase

	salt, err := sargon2.GenerateRandomBytes(saltKeyLength)
	if err != nil {
		return nil, errors.Wrap(err, "could not generate salt for credentials")
	}
	hash := argon2.IDKey(passphrase, salt, 3, 64<<10, 2, 32)

	//
	// Seal config

	aead, err := chacha20poly1305.NewX(hash)
	if err != nil {
		return nil, errors.Wrap(err, "could not create AEAD")
	}
	nonce, err := sargon2.GenerateRandomBytes(uint32(aead.NonceSize()))
	if err != nil {
		return nil, errors.Wrap(err, "could not generate nonce for credentials")
	}

	ciphertext := aead.Seal(nil, nonce, payload, nil)
	ciphertext = append(nonce, ciphertext...)
	ciphertext = append(salt, ciphertext...)
	return ciphertext, nil
}

// Open decrypts a configuration sealed with the given passphrase.
func Open(ciphertext, passphrase []byte) (Config, error) {
	var cfg Config
	if len(ciphertext) < saltKeyLength+chacha20poly1305.NonceSizeX {
		return cfg, errors.New("credentials file is truncated")
	}

	//
	// Key derivation of passphrase

	salt := ciphertext[:saltKeyLength]
	ciphertext = ciphertext[saltKeyLength:]
	hash := argon2.IDKey(passphrase, salt, 3, 64<<10, 2, 32)

	//
	// Open config

	aead, err := chacha20poly1305.NewX(hash)
	if err != nil {
		return cfg, errors.Wrap(err, "could not create AEAD")
	}

	nonce := ciphertext[:aead.NonceSize()]
	ciphertext = ciphertext[aead.NonceSize():]

	payload, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return cfg, errors.Wrap(err, "could not decrypt credentials file")
	}

	err = json.Unmarshal(payload, &cfg)
	return cfg, errors.Wrap(err, "could not parse config")
}
