package domain

import (
	"context"
	"testing"

	"github.com/emberflow/emberflow/internal/practice/service"
	"github.com/emberflow/emberflow/internal/telemetry"
)

func newRitualService() *service.Service {
	return service.New(service.Stores{
		Activity:  &fakeActivityStore{},
		Grace:     &fakeGraceStore{},
		RitualRun: &fakeRunStore{},
	}, telemetry.NewEmitter(nil))
}

func TestRitualConfigPreviewHandler(t *testing.T) {
	handler := RitualConfigPreviewHandler()

	_, result, err := handler(context.Background(), nil, RitualConfigPreviewInput{
		Mode:            "ritual",
		DurationSeconds: 600,
	})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}

	if result.Config.TotalDurationSeconds != 600 {
		t.Errorf("total = %d, want 600", result.Config.TotalDurationSeconds)
	}
	if result.TotalFormatted != "10m" {
		t.Errorf("total formatted = %q, want 10m", result.TotalFormatted)
	}

	wantDurations := []int{60, 120, 180, 60, 180}
	if len(result.Config.Phases) != len(wantDurations) {
		t.Fatalf("got %d phases, want %d", len(result.Config.Phases), len(wantDurations))
	}
	for i, want := range wantDurations {
		if got := result.Config.Phases[i].DurationSeconds; got != want {
			t.Errorf("phase %d duration = %d, want %d", i, got, want)
		}
	}
	if result.Config.Phases[0].Haptic != "light" {
		t.Errorf("first haptic = %q, want light", result.Config.Phases[0].Haptic)
	}
	if result.Config.Phases[3].Haptic != "medium" {
		t.Errorf("transfer haptic = %q, want medium", result.Config.Phases[3].Haptic)
	}
}

func TestRitualConfigPreviewHandlerLocale(t *testing.T) {
	handler := RitualConfigPreviewHandler()

	_, english, err := handler(context.Background(), nil, RitualConfigPreviewInput{Mode: "focus"})
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	_, portuguese, err := handler(context.Background(), nil, RitualConfigPreviewInput{Mode: "focus", Locale: "pt-BR"})
	if err != nil {
		t.Fatalf("handler with locale: %v", err)
	}

	if len(english.Config.Phases) != 1 || len(portuguese.Config.Phases) != 1 {
		t.Fatal("focus preview should have one phase")
	}
	if english.Config.Phases[0].Instructions[0] == portuguese.Config.Phases[0].Instructions[0] {
		t.Error("pt-BR instructions match en-US, want localized text")
	}
}

func TestRitualConfigPreviewHandlerUnknownMode(t *testing.T) {
	handler := RitualConfigPreviewHandler()

	if _, _, err := handler(context.Background(), nil, RitualConfigPreviewInput{Mode: "zen"}); err == nil {
		t.Error("handler with unknown mode succeeded, want error")
	}
}

func TestRitualLifecycleHandlers(t *testing.T) {
	svc := newRitualService()
	ctx := context.Background()

	_, started, err := RitualStartHandler(svc)(ctx, nil, RitualStartInput{
		UserID:          "user-1",
		Mode:            "focus",
		DurationSeconds: 120,
	})
	if err != nil {
		t.Fatalf("start handler: %v", err)
	}
	if started.RunID == "" {
		t.Fatal("run id is empty")
	}
	if started.Config.TotalDurationSeconds != 120 {
		t.Errorf("total = %d, want 120", started.Config.TotalDurationSeconds)
	}

	_, progress, err := RitualProgressHandler(svc)(ctx, nil, RitualProgressInput{RunID: started.RunID})
	if err != nil {
		t.Fatalf("progress handler: %v", err)
	}
	if progress.Completed {
		t.Error("fresh run reported complete")
	}
	if progress.Phase == nil || progress.Phase.Key != "focus" {
		t.Errorf("phase = %+v, want focus", progress.Phase)
	}

	_, completed, err := RitualCompleteHandler(svc)(ctx, nil, RitualCompleteInput{RunID: started.RunID})
	if err != nil {
		t.Fatalf("complete handler: %v", err)
	}
	if completed.CompletedAt == "" {
		t.Error("completed_at is empty")
	}

	_, progress, err = RitualProgressHandler(svc)(ctx, nil, RitualProgressInput{RunID: started.RunID})
	if err != nil {
		t.Fatalf("progress handler after completion: %v", err)
	}
	if !progress.Completed {
		t.Error("completed run not reported complete")
	}
	if progress.Phase != nil {
		t.Errorf("phase = %+v, want nil after completion", progress.Phase)
	}

	if _, _, err := RitualCompleteHandler(svc)(ctx, nil, RitualCompleteInput{RunID: started.RunID}); err == nil {
		t.Error("second completion succeeded, want error")
	}
}

func TestRitualProgressHandlerNotFound(t *testing.T) {
	svc := newRitualService()

	if _, _, err := RitualProgressHandler(svc)(context.Background(), nil, RitualProgressInput{RunID: "missing"}); err == nil {
		t.Error("progress handler with missing run succeeded, want error")
	}
}
