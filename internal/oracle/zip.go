package oracle

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ChuLiYu/zipsweep/pkg/types"
	"github.com/yeka/zip"
)

var (
	// ErrNotZip indicates the target does not start with a local file header.
	ErrNotZip = errors.New("not a zip archive")
	// ErrEmptyArchive indicates an archive without file entries.
	ErrEmptyArchive = errors.New("zip archive is empty")
	// ErrNotEncrypted indicates an archive without any password-protected entry.
	ErrNotEncrypted = errors.New("zip archive is not password protected")
)

const (
	// FormatZip is reported for archives with a valid local file header magic.
	FormatZip = "ZIP Archive"

	aesExtraID = 0x9901
)

var zipMagic = []byte{0x50, 0x4B, 0x03, 0x04}

// DetectFormat reads the leading magic bytes of path.
func DetectFormat(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open target: %w", err)
	}
	defer f.Close()

	head := make([]byte, len(zipMagic))
	if _, err := io.ReadFull(f, head); err != nil {
		return "", fmt.Errorf("%w: file too small", ErrNotZip)
	}
	if !bytes.Equal(head, zipMagic) {
		return "", ErrNotZip
	}
	return FormatZip, nil
}

// Inspect validates path as a ZIP archive and describes its protection.
// An unencrypted archive is reported, not rejected.
func Inspect(path string) (types.ArchiveInfo, error) {
	info := types.ArchiveInfo{Path: path}

	format, err := DetectFormat(path)
	if err != nil {
		return info, err
	}
	info.Format = format

	rc, err := zip.OpenReader(path)
	if err != nil {
		return info, fmt.Errorf("failed to read zip archive: %w", err)
	}
	defer rc.Close()

	for _, f := range rc.File {
		if !f.FileInfo().IsDir() {
			info.Entries++
		}
	}
	if info.Entries == 0 {
		return info, ErrEmptyArchive
	}

	entry := firstEncrypted(rc.File)
	if entry == nil {
		info.Encryption = EncryptionName(nil)
		return info, nil
	}

	info.Encrypted = true
	info.Entry = entry.Name
	info.Encryption = EncryptionName(entry)
	return info, nil
}

// EncryptionName describes how entry is protected.
func EncryptionName(entry *zip.File) string {
	if entry == nil || !entry.IsEncrypted() {
		return "None (Unencrypted)"
	}

	switch aesStrength(entry.Extra) {
	case 1:
		return "AES-128 (Strong)"
	case 2:
		return "AES-192 (Strong)"
	case 3:
		return "AES-256 (Very Strong)"
	default:
		return "Traditional PKWARE (Weak)"
	}
}

// IsAES reports whether an encryption name from EncryptionName is an AES scheme.
func IsAES(name string) bool {
	return len(name) >= 3 && name[:3] == "AES"
}

// aesStrength extracts the strength byte of the WinZip AES extra field, or 0.
func aesStrength(extra []byte) byte {
	for len(extra) >= 4 {
		id := binary.LittleEndian.Uint16(extra[0:2])
		size := int(binary.LittleEndian.Uint16(extra[2:4]))
		extra = extra[4:]
		if size > len(extra) {
			return 0
		}
		if id == aesExtraID && size >= 7 {
			return extra[4]
		}
		extra = extra[size:]
	}
	return 0
}

func firstEncrypted(files []*zip.File) *zip.File {
	for _, f := range files {
		if f.IsEncrypted() && !f.FileInfo().IsDir() {
			return f
		}
	}
	return nil
}

// ZipOracle verifies candidates against the first encrypted entry of an archive.
type ZipOracle struct{}

// NewZipOracle returns the encrypted ZIP oracle.
func NewZipOracle() *ZipOracle {
	return &ZipOracle{}
}

// Open implements Oracle. Each call opens its own reader.
func (o *ZipOracle) Open(target string) (Handle, error) {
	rc, err := zip.OpenReader(target)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", target, err)
	}

	entry := firstEncrypted(rc.File)
	if entry == nil {
		rc.Close()
		return nil, ErrNotEncrypted
	}

	return &zipHandle{rc: rc, entry: entry}, nil
}

type zipHandle struct {
	rc    *zip.ReadCloser
	entry *zip.File
}

// Try sets the password, opens the entry and reads it to EOF. A failed open
// or a read/CRC error both mean the candidate is not the password.
func (h *zipHandle) Try(candidate string) (bool, error) {
	h.entry.SetPassword(candidate)

	r, err := h.entry.Open()
	if err != nil {
		return false, nil
	}
	defer r.Close()

	if _, err := io.Copy(io.Discard, r); err != nil {
		return false, nil
	}
	return true, nil
}

func (h *zipHandle) Close() error {
	return h.rc.Close()
}

// CheckPassword checks a single password against path.
func CheckPassword(path, password string) (bool, error) {
	h, err := NewZipOracle().Open(path)
	if err != nil {
		return false, err
	}
	defer h.Close()

	return h.Try(password)
}
