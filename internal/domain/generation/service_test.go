package generation

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestService(t *testing.T, impls ...Implementation) *Service {
	t.Helper()
	reg, factory := newTestFactory(t, impls...)
	return NewService(reg, factory, testLogger())
}

func TestGenerateContentSuccess(t *testing.T) {
	model := newStubModel(testDescriptor("revo-1.5", nil))
	svc := newTestService(t, model)

	resp := svc.GenerateContent(context.Background(), contentRequest("revo-1.5"))
	if !resp.Success {
		t.Fatalf("expected success, got %s: %s", resp.Code, resp.Error)
	}
	if resp.Data == nil || resp.Data.Caption == "" {
		t.Fatal("expected a populated post")
	}
	if resp.Metadata.ModelID != "revo-1.5" {
		t.Fatalf("metadata model id = %q", resp.Metadata.ModelID)
	}
}

func TestGenerateContentFailureTaxonomy(t *testing.T) {
	down := newStubModel(testDescriptor("down", nil))
	down.available.Store(false)
	svc := newTestService(t, down)

	cases := []struct {
		name string
		req  *ContentRequest
		code FailureCode
	}{
		{"nil request", nil, CodeInvalidRequest},
		{"missing model id", contentRequest(""), CodeInvalidRequest},
		{"missing profile", &ContentRequest{ModelID: "down", Platform: PlatformInstagram}, CodeInvalidRequest},
		{"unknown platform", &ContentRequest{ModelID: "down", Profile: &BusinessProfile{Name: "x"}, Platform: "myspace"}, CodeInvalidRequest},
		{"unknown model", contentRequest("ghost"), CodeModelNotFound},
		{"unavailable model", contentRequest("down"), CodeModelUnavailable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := svc.GenerateContent(context.Background(), tc.req)
			if resp.Success {
				t.Fatal("expected failure")
			}
			if resp.Code != tc.code {
				t.Fatalf("code = %s, want %s", resp.Code, tc.code)
			}
			if !resp.Metadata.CreditsUsed.IsZero() {
				t.Fatal("failed response must report zero credits used")
			}
		})
	}
}

func TestGenerateContentModelRejection(t *testing.T) {
	picky := newStubModel(testDescriptor("picky", nil))
	picky.contentValidateErr = errors.New("artifacts are not supported by this model")
	called := false
	picky.contentFn = func(ctx context.Context, req *ContentRequest) (*Response[*Post], error) {
		called = true
		return nil, nil
	}
	svc := newTestService(t, picky)

	req := contentRequest("picky")
	req.ArtifactIDs = []string{"a1", "a2", "a3", "a4", "a5"}
	resp := svc.GenerateContent(context.Background(), req)
	if resp.Success || resp.Code != CodeRequestRejected {
		t.Fatalf("expected request-rejected-by-model, got %s", resp.Code)
	}
	if called {
		t.Fatal("provider must not be invoked after model-side rejection")
	}
}

func TestGenerateContentProviderError(t *testing.T) {
	broken := newStubModel(testDescriptor("broken", nil))
	broken.contentFn = func(ctx context.Context, req *ContentRequest) (*Response[*Post], error) {
		return nil, errUpstreamDown
	}
	svc := newTestService(t, broken)

	resp := svc.GenerateContent(context.Background(), contentRequest("broken"))
	if resp.Success || resp.Code != CodeGenerationError {
		t.Fatalf("expected generation-error, got %s", resp.Code)
	}
}

func TestGenerateContentRecoversPanic(t *testing.T) {
	panicky := newStubModel(testDescriptor("panicky", nil))
	panicky.contentFn = func(ctx context.Context, req *ContentRequest) (*Response[*Post], error) {
		panic("slice index out of range")
	}
	svc := newTestService(t, panicky)

	resp := svc.GenerateContent(context.Background(), contentRequest("panicky"))
	if resp == nil || resp.Success {
		t.Fatal("panic must surface as a failure envelope")
	}
	if resp.Code != CodeGenerationError {
		t.Fatalf("code = %s, want %s", resp.Code, CodeGenerationError)
	}
}

func TestGenerateDesignRejectsContentOnlyModel(t *testing.T) {
	model := &contentOnlyModel{desc: testDescriptor("content-only", func(d *Descriptor) {
		d.Capabilities.DesignGeneration = false
	})}
	svc := newTestService(t, model)

	resp := svc.GenerateDesign(context.Background(), designRequest("content-only"))
	if resp.Success || resp.Code != CodeRequestRejected {
		t.Fatalf("expected request-rejected-by-model, got %s", resp.Code)
	}
}

func TestGenerateContentAutoPicksBestModel(t *testing.T) {
	weak := newStubModel(testDescriptor("weak", func(d *Descriptor) {
		d.Capabilities.MaxQuality = 3
	}))
	strong := newStubModel(testDescriptor("strong", func(d *Descriptor) {
		d.Capabilities.MaxQuality = 9
	}))
	svc := newTestService(t, weak, strong)

	req := contentRequest("")
	resp := svc.GenerateContentAuto(context.Background(), req, SelectionCriteria{Preference: PreferQuality})
	if !resp.Success {
		t.Fatalf("auto generation failed: %s", resp.Error)
	}
	if resp.Metadata.ModelID != "strong" {
		t.Fatalf("auto selection picked %q, want strong", resp.Metadata.ModelID)
	}
	if req.ModelID != "" {
		t.Fatal("auto selection must not mutate the caller's request")
	}
}

func TestGenerateContentAutoRequiresArtifactSupport(t *testing.T) {
	plain := newStubModel(testDescriptor("plain", nil))
	artifacts := newStubModel(testDescriptor("artifacts", func(d *Descriptor) {
		d.Capabilities.ArtifactSupport = true
	}))
	svc := newTestService(t, plain, artifacts)

	req := contentRequest("")
	req.ArtifactIDs = []string{"a1"}
	resp := svc.GenerateContentAuto(context.Background(), req, SelectionCriteria{})
	if !resp.Success || resp.Metadata.ModelID != "artifacts" {
		t.Fatalf("expected the artifact-capable model, got %q", resp.Metadata.ModelID)
	}
}

func TestGenerateContentAutoNoSuitableModel(t *testing.T) {
	tiktokless := newStubModel(testDescriptor("tiktokless", nil))
	svc := newTestService(t, tiktokless)

	req := contentRequest("")
	req.Platform = PlatformTikTok
	resp := svc.GenerateContentAuto(context.Background(), req, SelectionCriteria{})
	if resp.Success || resp.Code != CodeNoSuitableModel {
		t.Fatalf("expected no-suitable-model, got %s", resp.Code)
	}
	if resp.Metadata.ModelID != NoSuitableModelID {
		t.Fatalf("model id = %q, want %q", resp.Metadata.ModelID, NoSuitableModelID)
	}
}

func TestBatchGenerateContentOrderingAndIsolation(t *testing.T) {
	good := newStubModel(testDescriptor("good", nil))
	panicky := newStubModel(testDescriptor("panicky", nil))
	panicky.contentFn = func(ctx context.Context, req *ContentRequest) (*Response[*Post], error) {
		panic("boom")
	}
	slow := newStubModel(testDescriptor("slow", nil))
	slow.contentFn = func(ctx context.Context, req *ContentRequest) (*Response[*Post], error) {
		time.Sleep(20 * time.Millisecond)
		return Succeed("slow", &Post{Caption: "slow caption"}, 20*time.Millisecond, 6.0, nil), nil
	}
	svc := newTestService(t, good, panicky, slow)

	reqs := []*ContentRequest{
		contentRequest("slow"),
		contentRequest("panicky"),
		contentRequest("good"),
	}
	results := svc.BatchGenerateContent(context.Background(), reqs)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if !results[0].Success || results[0].Metadata.ModelID != "slow" {
		t.Fatalf("slot 0 = %+v, want slow success", results[0])
	}
	if results[1].Success || results[1].Code != CodeGenerationError {
		t.Fatalf("slot 1 must hold the panicking request's failure, got %+v", results[1])
	}
	if !results[2].Success || results[2].Metadata.ModelID != "good" {
		t.Fatalf("slot 2 = %+v, want good success", results[2])
	}
}

func TestRecommendContentModel(t *testing.T) {
	model := newStubModel(testDescriptor("revo-2.0", nil))
	svc := newTestService(t, model)

	desc := svc.RecommendContentModel(context.Background(), SelectionCriteria{Platform: PlatformInstagram})
	if desc == nil || desc.ID != "revo-2.0" {
		t.Fatalf("recommendation = %+v", desc)
	}

	if desc := svc.RecommendContentModel(context.Background(), SelectionCriteria{Platform: PlatformTikTok}); desc != nil {
		t.Fatalf("expected nil recommendation for unsupported platform, got %s", desc.ID)
	}
}
