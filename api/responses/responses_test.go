package responses

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	pkgerrors "github.com/miguelserrato/tapiceros-backend/pkg/errors"
	"github.com/miguelserrato/tapiceros-backend/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", got)
	}

	var body types.APIResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if !body.Success {
		t.Fatalf("expected success envelope")
	}
	if body.Data.(map[string]any)["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteListIncludesPagination(t *testing.T) {
	w := httptest.NewRecorder()
	WriteList(w, []string{"a", "b"}, &types.Pagination{Page: 1, Limit: 20, Total: 2, Pages: 1})

	var body types.APIResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if body.Pagination == nil || body.Pagination.Total != 2 {
		t.Fatalf("expected pagination envelope, got %+v", body.Pagination)
	}
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "bad input").
		WithDetails([]types.FieldError{{Field: "email", Message: "must be a valid email"}})
	WriteError(context.Background(), nil, w, err)

	if got := w.Code; got != http.StatusBadRequest {
		t.Fatalf("expected status 400 but got %d", got)
	}

	var body types.APIResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if body.Success {
		t.Fatalf("expected failure envelope")
	}
	if body.Error == nil || body.Error.Code != string(pkgerrors.CodeValidation) {
		t.Fatalf("unexpected error payload %+v", body.Error)
	}
	if len(body.Errors) != 1 || body.Errors[0].Field != "email" {
		t.Fatalf("expected field errors in public payload, got %+v", body.Errors)
	}
	if body.Message != "bad input" {
		t.Fatalf("expected typed message surfaced, got %q", body.Message)
	}
}

func TestWriteErrorDefaultsToInternalForUntrustedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(context.Background(), nil, w, errors.New("boom"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}

	var body types.APIResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode envelope: %v", err)
	}
	if body.Error == nil || body.Error.Code != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected error payload %+v", body.Error)
	}
	if body.Message != "internal server error" {
		t.Fatalf("internal errors must not leak their message, got %q", body.Message)
	}
}

func TestWritePDFSetsAttachmentHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	WritePDF(w, "INV-2026-00001.pdf", []byte("%PDF-1.4 test"))

	if got := w.Header().Get("Content-Type"); got != "application/pdf" {
		t.Fatalf("unexpected content type %q", got)
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="INV-2026-00001.pdf"` {
		t.Fatalf("unexpected disposition %q", got)
	}
}
