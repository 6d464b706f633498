/*
 * MIT License
 *
 * Copyright (c) 2026 Nguyen Thanh Phuong
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 */

package metrics

import (
	"errors"
	"fmt"
)

var (
	// ErrUnavailable signals that a metric facility does not exist on this host, or was
	// not reachable this cycle. It is expected and never fatal.
	ErrUnavailable = errors.New("metric unavailable")

	// ErrInvalidSample is returned by sample validation.
	ErrInvalidSample = errors.New("invalid sample")
)

// UnavailableError carries the family and reason of an Unavailable result.
type UnavailableError struct {
	Family Family
	Reason string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("%s %s: %s", e.Family, ErrUnavailable, e.Reason)
}

func (e *UnavailableError) Unwrap() error { return ErrUnavailable }

// Unavailable returns an UnavailableError for the family.
func Unavailable(family Family, reason string) error {
	return &UnavailableError{Family: family, Reason: reason}
}

// IsUnavailable reports whether err is an Unavailable result.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}
