package mocks

import (
	"github.com/user/mapshot/pkg/ports"
)

// DocumentAssembler is a mock implementation of ports.DocumentAssembler.
type DocumentAssembler struct {
	BeginFunc   func(page ports.PageGeometry) error
	AddPageFunc func(data []byte, format ports.ImageFormat, placement ports.Placement) error
	EndFunc     func() ([]byte, error)

	// Recorded calls for verification
	BeginCalled  bool
	Page         ports.PageGeometry
	AddPageCalls []AddPageCall
	EndCalled    bool
}

// AddPageCall records a call to AddPage.
type AddPageCall struct {
	Data      []byte
	Format    ports.ImageFormat
	Placement ports.Placement
}

func (m *DocumentAssembler) Begin(page ports.PageGeometry) error {
	m.BeginCalled = true
	m.Page = page
	m.AddPageCalls = nil
	if m.BeginFunc != nil {
		return m.BeginFunc(page)
	}
	return nil
}

func (m *DocumentAssembler) AddPage(data []byte, format ports.ImageFormat, placement ports.Placement) error {
	if m.AddPageFunc != nil {
		if err := m.AddPageFunc(data, format, placement); err != nil {
			return err
		}
	}
	m.AddPageCalls = append(m.AddPageCalls, AddPageCall{Data: data, Format: format, Placement: placement})
	return nil
}

func (m *DocumentAssembler) End() ([]byte, error) {
	m.EndCalled = true
	if m.EndFunc != nil {
		return m.EndFunc()
	}
	return []byte("%PDF-1.3\n%%EOF\n"), nil
}

func (m *DocumentAssembler) PageCount() int {
	return len(m.AddPageCalls)
}

var _ ports.DocumentAssembler = (*DocumentAssembler)(nil)
