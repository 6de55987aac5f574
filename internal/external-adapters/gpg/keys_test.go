package gpg

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/armor"
)

// writeTestKeys generates a key pair and writes the armored public and
// private keys into dir. A non-empty passphrase encrypts the private key.
func writeTestKeys(t *testing.T, dir string, passphrase []byte) (pubPath, privPath string, entity *openpgp.Entity) {
	t.Helper()

	entity, err := openpgp.NewEntity("Audit Signer", "test", "audit@example.com", nil)
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	pubPath = filepath.Join(dir, "public.asc")
	pubFile, err := os.Create(pubPath)
	if err != nil {
		t.Fatalf("failed to create public key file: %v", err)
	}
	pubWriter, err := armor.Encode(pubFile, openpgp.PublicKeyType, nil)
	if err != nil {
		t.Fatalf("failed to start armor: %v", err)
	}
	if err := entity.Serialize(pubWriter); err != nil {
		t.Fatalf("failed to serialize public key: %v", err)
	}
	_ = pubWriter.Close()
	_ = pubFile.Close()

	if len(passphrase) > 0 {
		if err := entity.EncryptPrivateKeys(passphrase, nil); err != nil {
			t.Fatalf("failed to encrypt private key: %v", err)
		}
	}

	privPath = filepath.Join(dir, "private.asc")
	privFile, err := os.Create(privPath)
	if err != nil {
		t.Fatalf("failed to create private key file: %v", err)
	}
	privWriter, err := armor.Encode(privFile, openpgp.PrivateKeyType, nil)
	if err != nil {
		t.Fatalf("failed to start armor: %v", err)
	}
	if err := entity.SerializePrivateWithoutSigning(privWriter, nil); err != nil {
		t.Fatalf("failed to serialize private key: %v", err)
	}
	_ = privWriter.Close()
	_ = privFile.Close()

	return pubPath, privPath, entity
}
