package library

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// MarshalJSON encodes the catalog as one object keyed by title, in catalog order.
func (c *Catalog) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, title := range c.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(title); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if err := enc.Encode(c.books[title]); err != nil {
			return nil, fmt.Errorf("encode book %q: %w", title, err)
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes a catalog object, keeping the key order of the document.
func (c *Catalog) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("catalog must be a JSON object, got %v", tok)
	}

	loaded := NewCatalog()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		title, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected catalog key %v", tok)
		}
		var b Book
		if err := dec.Decode(&b); err != nil {
			return fmt.Errorf("decode book %q: %w", title, err)
		}
		b.Title = title
		if err := loaded.Put(b); err != nil {
			return fmt.Errorf("book %q: %w", title, err)
		}
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = *loaded
	return nil
}

// ReadCatalog decodes a catalog document.
func ReadCatalog(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	c := NewCatalog()
	if len(bytes.TrimSpace(data)) == 0 {
		return c, nil
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return c, nil
}

// WriteCatalog writes c as an indented JSON document.
func WriteCatalog(w io.Writer, c *Catalog) error {
	compact, err := c.MarshalJSON()
	if err != nil {
		return err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact, "", "    "); err != nil {
		return err
	}
	out.WriteByte('\n')
	_, err = w.Write(out.Bytes())
	return err
}
