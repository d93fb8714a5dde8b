package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

const (
	profileFormatVersionCurrent = 2
	profileFormatVersionV1      = 1
)

// ErrUnsupportedProfileVersion is returned by [DecodeProfile] for unknown schema bytes.
var ErrUnsupportedProfileVersion = errors.New("unsupported cached profile schema version")

// CachedProfile is a verified profile together with the time it was verified.
type CachedProfile struct {
	Profile    UserProfile
	VerifiedAt time.Time
}

// EncodeProfile serializes a cached profile into the current binary schema.
//
// Layout (v2): version | id | email | role | displayName | avatarURL | verifiedAt(unix nanos, int64 BE).
// Strings are a one-byte length followed by the bytes; v1 had no avatar field.
func EncodeProfile(c CachedProfile) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte(profileFormatVersionCurrent)

	fields := []struct {
		name  string
		value string
	}{
		{"id", c.Profile.ID},
		{"email", c.Profile.Email},
		{"role", string(c.Profile.Role)},
		{"displayName", c.Profile.DisplayName},
		{"avatarURL", c.Profile.AvatarURL},
	}
	for _, f := range fields {
		if len(f.value) > 255 {
			return nil, fmt.Errorf("%s too long", f.name)
		}
		buf.WriteByte(byte(len(f.value)))
		buf.WriteString(f.value)
	}

	var nanos int64
	if !c.VerifiedAt.IsZero() {
		nanos = c.VerifiedAt.UnixNano()
	}
	if err := binary.Write(&buf, binary.BigEndian, nanos); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// DecodeProfile parses any supported schema version produced by [EncodeProfile].
func DecodeProfile(data []byte) (CachedProfile, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return CachedProfile{}, err
	}
	if version != profileFormatVersionCurrent && version != profileFormatVersionV1 {
		return CachedProfile{}, fmt.Errorf("%w: %d", ErrUnsupportedProfileVersion, version)
	}

	var out CachedProfile
	if out.Profile.ID, err = readString(reader); err != nil {
		return CachedProfile{}, err
	}
	if out.Profile.Email, err = readString(reader); err != nil {
		return CachedProfile{}, err
	}
	role, err := readString(reader)
	if err != nil {
		return CachedProfile{}, err
	}
	out.Profile.Role = ParseRole(role)
	if out.Profile.DisplayName, err = readString(reader); err != nil {
		return CachedProfile{}, err
	}
	if version == profileFormatVersionCurrent {
		if out.Profile.AvatarURL, err = readString(reader); err != nil {
			return CachedProfile{}, err
		}
	}

	var nanos int64
	if err := binary.Read(reader, binary.BigEndian, &nanos); err != nil {
		return CachedProfile{}, err
	}
	if nanos != 0 {
		out.VerifiedAt = time.Unix(0, nanos).UTC()
	}

	return out, nil
}

func readString(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
