package container

import (
	"errors"
	"strconv"
	"strings"
)

var (
	// ErrUnresolvedProxy is matched by every *UnresolvedProxyError.
	ErrUnresolvedProxy = errors.New("container: unresolved proxy")

	// ErrUnsatisfiedBean is returned when no bean definition matches a lookup.
	ErrUnsatisfiedBean = errors.New("container: no matching bean")

	// ErrContextFinished is delivered when Finish is requested twice.
	ErrContextFinished = errors.New("container: creational context already finished")
)

// UnresolvedProxyError is the fatal outcome of a proxy resolution pass that made
// some progress but still left references without a bean.
type UnresolvedProxyError struct {
	Ref BeanRef
}

func (e *UnresolvedProxyError) Error() string {
	return "container: unresolved proxy: " + e.Ref.String()
}

// Is makes errors.Is(err, ErrUnresolvedProxy) hold.
func (e *UnresolvedProxyError) Is(target error) bool { return target == ErrUnresolvedProxy }

// DuplicateWireError is returned when a ref is wired twice in an immutable context.
type DuplicateWireError struct {
	Ref BeanRef
}

func (e *DuplicateWireError) Error() string {
	return "container: " + strconv.Quote(e.Ref.String()) + " is already wired in this context"
}

// AmbiguousBeanError is returned by LookupBean when more than one definition
// matches and none can be preferred.
type AmbiguousBeanError struct {
	Ref        BeanRef
	Candidates []string
}

func (e *AmbiguousBeanError) Error() string {
	return "container: ambiguous bean " + strconv.Quote(e.Ref.String()) +
		": candidates " + strings.Join(e.Candidates, ", ")
}
