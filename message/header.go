package message

import (
	"bytes"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/zostay/go-addr/pkg/addr"
)

// Field names used to build the envelope and identify the message.
const (
	Bcc       = "Bcc"
	Cc        = "Cc"
	Date      = "Date"
	From      = "From"
	MessageID = "Message-ID"
	Sender    = "Sender"
	To        = "To"
)

// UnixDateWithEarlyYear is a weird one, eh?
const UnixDateWithEarlyYear = "Mon Jan 02 15:04:05 2006 MST"

var (
	// ErrNoSuchField is returned by Get when the named field is not present in
	// the header.
	ErrNoSuchField = errors.New("no such header field")

	// ErrManyFields is returned by Get when the named field appears more than
	// once in the header.
	ErrManyFields = errors.New("more than one header field with that name")
)

// Field is a single unfolded header field.
type Field struct {
	Name string
	Body string
}

// Header is the list of fields found in a message header, in the order they
// were found. It is read-only: changing it does not change the bytes of the
// message.
type Header struct {
	Fields []Field
}

// parseHeader splits the header bytes into fields using the given line break.
// Continuation lines are joined to the field before them. Lines that are not
// fields, such as an mbox "From " line, are skipped.
func parseHeader(hdr, lbr []byte) *Header {
	h := &Header{}
	for _, line := range bytes.Split(hdr, lbr) {
		if len(line) == 0 {
			continue
		}

		if (line[0] == ' ' || line[0] == '\t') && len(h.Fields) > 0 {
			f := &h.Fields[len(h.Fields)-1]
			f.Body += string(line)
			continue
		}

		name, body, found := bytes.Cut(line, []byte{':'})
		if !found || len(name) == 0 || bytes.ContainsAny(name, " \t") {
			continue
		}

		h.Fields = append(h.Fields, Field{
			Name: string(name),
			Body: string(body),
		})
	}

	for i := range h.Fields {
		h.Fields[i].Body = strings.TrimSpace(h.Fields[i].Body)
	}

	return h
}

// GetAll returns the bodies of every field with the given name. Names are
// matched without regard to case.
func (h *Header) GetAll(name string) []string {
	var bodies []string
	for _, f := range h.Fields {
		if strings.EqualFold(f.Name, name) {
			bodies = append(bodies, f.Body)
		}
	}
	return bodies
}

// Get returns the body of the named field. It returns ErrNoSuchField if the
// field is missing and ErrManyFields if it is set more than once.
func (h *Header) Get(name string) (string, error) {
	bodies := h.GetAll(name)
	switch len(bodies) {
	case 0:
		return "", ErrNoSuchField
	case 1:
		return bodies[0], nil
	}
	return bodies[0], ErrManyFields
}

// GetTime parses the named field as a date. RFC 5322 format is tried first,
// then whatever dateparse can make sense of.
func (h *Header) GetTime(name string) (time.Time, error) {
	body, err := h.Get(name)
	if err != nil {
		return time.Time{}, err
	}

	return ParseTime(body)
}

// ParseTime parses a date field body.
func ParseTime(body string) (time.Time, error) {
	t, err := mail.ParseDate(body)
	if err == nil {
		return t, nil
	}

	t, err = dateparse.ParseAny(body)
	if err == nil {
		return t, nil
	}

	return time.Parse(UnixDateWithEarlyYear, body)
}

// ParseAddressList returns the bare email addresses found in a field body.
// When the body does not parse strictly, each comma-separated piece is tried
// on its own and the ones that fail are dropped.
func ParseAddressList(body string) []string {
	al, err := addr.ParseEmailAddressList(body)
	if err != nil {
		al = make(addr.AddressList, 0, strings.Count(body, ",")+1)
		for _, piece := range strings.Split(body, ",") {
			a, err := addr.ParseEmailAddress(strings.TrimSpace(piece))
			if err != nil {
				continue
			}
			al = append(al, a)
		}
	}

	emails := make([]string, 0, len(al))
	for _, a := range al {
		if email := a.Address(); email != "" {
			emails = append(emails, email)
		}
	}
	return emails
}

// Envelope builds an envelope from the header. The sender is the first
// address of Sender, falling back to From. The recipients are every address in
// To, Cc, and Bcc, each listed once.
func (h *Header) Envelope() Envelope {
	var env Envelope

	for _, name := range []string{Sender, From} {
		for _, body := range h.GetAll(name) {
			if emails := ParseAddressList(body); len(emails) > 0 {
				env.From = emails[0]
				break
			}
		}
		if env.From != "" {
			break
		}
	}

	seen := map[string]struct{}{}
	for _, name := range []string{To, Cc, Bcc} {
		for _, body := range h.GetAll(name) {
			for _, email := range ParseAddressList(body) {
				key := strings.ToLower(email)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				env.To = append(env.To, email)
			}
		}
	}

	return env
}
