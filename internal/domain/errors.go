package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("item not found")
	ErrInvalidInput      = errors.New("invalid input")
	ErrInvalidIdentifier = errors.New("invalid identifier")
	ErrDependency        = errors.New("dependency failure")
	ErrCache             = errors.New("internal cache error")
	ErrCacheMiss         = errors.New("cache miss")
	ErrNotify            = errors.New("notification error")
)

// ErrorContainer collects the errors seen while serving one request.
// It is not safe for concurrent use: a request owns its container.
type ErrorContainer struct {
	inner []error
}

func NewErrorContainer(e ...error) ErrorContainer {
	ec := ErrorContainer{inner: make([]error, 0, len(e))}
	ec.inner = append(ec.inner, e...)
	return ec
}

func (c *ErrorContainer) Add(e ...error) {
	for _, err := range e {
		if err != nil {
			c.inner = append(c.inner, err)
		}
	}
}

func (c ErrorContainer) Error() string {
	errMessage := ""
	for _, err := range c.inner {
		errMessage = fmt.Sprintf("%s%s;\n", errMessage, err.Error())
	}
	return errMessage
}

func (c ErrorContainer) Unwrap() []error {
	return c.inner
}

type errorContainerKey struct{}

func WithErrorContainer(ctx context.Context, c *ErrorContainer) context.Context {
	return context.WithValue(ctx, errorContainerKey{}, c)
}

// ErrorContainerFrom returns nil when the context carries no container.
func ErrorContainerFrom(ctx context.Context) *ErrorContainer {
	c, _ := ctx.Value(errorContainerKey{}).(*ErrorContainer)
	return c
}

// RecordError adds err to the request's container, if there is one.
func RecordError(ctx context.Context, err error) {
	if c := ErrorContainerFrom(ctx); c != nil {
		c.Add(err)
	}
}
