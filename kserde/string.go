package kserde

import (
	"fmt"
)

var StringDeserializer = func(data []byte) (string, error) {
	return string(data), nil
}

var StringSerializer = func(data string) ([]byte, error) {
	return []byte(data), nil
}

var String = Serde[string]{
	Serializer:   StringSerializer,
	Deserializer: StringDeserializer,
}

// TextSerializer encodes any value as UTF-8 text. Strings and byte slices are
// used as they are, everything else is formatted with fmt.
var TextSerializer Serializer[any] = func(v any) ([]byte, error) {
	switch t := v.(type) {
	case string:
		return []byte(t), nil
	case []byte:
		return t, nil
	case nil:
		return nil, nil
	}
	return []byte(fmt.Sprint(v)), nil
}

// Text is a SerDe writing any value as text and reading it back as a string.
var Text = Serde[any]{
	Serializer:   TextSerializer,
	Deserializer: EraseDeserializer(StringDeserializer),
}
