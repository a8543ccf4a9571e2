package common

import (
	"io"
	"log"
)

func DefaultValue[T any]() T {
	var defaultValue T
	return defaultValue
}

func Error(_ any, err error) error {
	return err
}

func Must(err error) {
	if err != nil {
		log.Fatalln(err)
	}
}

func Must1(_ any, err error) {
	if err != nil {
		log.Fatalln(err)
	}
}

func Close(closers ...any) {
	for _, closer := range closers {
		if closer == nil {
			continue
		}
		if c, isCloser := closer.(io.Closer); isCloser {
			c.Close()
		}
	}
}
