package service

import (
	"context"
	"strings"
)

// CertificationResult is the certifying body's answer for a credential.
type CertificationResult struct {
	Valid   bool
	Message string
}

// CertificationVerifier checks a first-aid certification id against the
// issuing body's registry.
type CertificationVerifier interface {
	Verify(ctx context.Context, certificationID string) (CertificationResult, error)
}

// StubCertificationVerifier approves any non-empty credential of plausible
// length. Stands in until the registry exposes a real endpoint.
type StubCertificationVerifier struct{}

func (StubCertificationVerifier) Verify(_ context.Context, certificationID string) (CertificationResult, error) {
	id := strings.TrimSpace(certificationID)
	if len(id) < 4 {
		return CertificationResult{Valid: false, Message: "certification id too short"}, nil
	}
	return CertificationResult{Valid: true, Message: "certification accepted"}, nil
}
