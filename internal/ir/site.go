package ir

import (
	"fmt"
	"path/filepath"
	"reflect"
	"runtime"
	"strings"
)

// Site is a source location: where an event was emitted or where an
// expectation was declared.
type Site struct {
	Package string `json:"package,omitempty"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// IsZero reports whether the site carries no location.
func (s Site) IsZero() bool {
	return s.File == "" && s.Line == 0
}

// String renders the site as "file line N", using the base file name.
func (s Site) String() string {
	if s.IsZero() {
		return "(unknown site)"
	}
	return fmt.Sprintf("%s line %d", filepath.Base(s.File), s.Line)
}

// CallerSite returns the site of a caller on the stack. skip follows
// runtime.Caller: 0 is the function calling CallerSite.
func CallerSite(skip int) Site {
	pc, file, line, ok := runtime.Caller(skip + 1)
	if !ok {
		return Site{}
	}
	return Site{Package: packageOf(runtime.FuncForPC(pc)), File: file, Line: line}
}

// FuncSite returns the site where fn is defined. For a closure this is the
// line holding its func keyword.
func FuncSite(fn any) Site {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return Site{}
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return Site{}
	}
	file, line := f.FileLine(f.Entry())
	return Site{Package: packageOf(f), File: file, Line: line}
}

// packageOf extracts the import path from a symbol such as
// "example.com/a/b.TestX.func1".
func packageOf(f *runtime.Func) string {
	if f == nil {
		return ""
	}
	name := f.Name()
	slash := strings.LastIndex(name, "/")
	if dot := strings.Index(name[slash+1:], "."); dot >= 0 {
		return name[:slash+1+dot]
	}
	return name
}
