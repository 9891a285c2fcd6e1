package imagegen_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"testing"

	"pantrypal/internal/services"
	"pantrypal/internal/services/imagegen"
	"pantrypal/internal/testsupport"
)

func TestPrompt(t *testing.T) {
	got := imagegen.Prompt(" Rice ")
	want := "High quality photo of Rice against a plain background."
	if got != want {
		t.Fatalf("Prompt = %q, want %q", got, want)
	}
}

func TestGenerateDecodesBase64(t *testing.T) {
	img := testsupport.PNG(t)
	server := testsupport.NewImageServer(t, img)
	client := imagegen.NewClient(imagegen.Config{APIKey: "test", BaseURL: server.BaseURL()})

	got, err := client.Generate(context.Background(), "Rice")
	if err != nil {
		t.Fatalf("Generate returned error: %v", err)
	}
	if !bytes.Equal(got, img) {
		t.Fatal("generated bytes differ from served image")
	}
	prompts := server.Prompts()
	if len(prompts) != 1 || prompts[0] != imagegen.Prompt("Rice") {
		t.Fatalf("unexpected prompts %v", prompts)
	}
}

func TestGenerateProviderFailure(t *testing.T) {
	server := testsupport.NewImageServer(t, testsupport.PNG(t))
	server.FailWith(http.StatusInternalServerError)
	client := imagegen.NewClient(imagegen.Config{APIKey: "test", BaseURL: server.BaseURL()})

	_, err := client.Generate(context.Background(), "Rice")
	if !errors.Is(err, services.ErrGenerationFailed) {
		t.Fatalf("expected ErrGenerationFailed, got %v", err)
	}
}

func TestGenerateRequiresAPIKey(t *testing.T) {
	client := imagegen.NewClient(imagegen.Config{})
	if _, err := client.Generate(context.Background(), "Rice"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	server := testsupport.NewImageServer(t, testsupport.PNG(t))
	client := imagegen.NewClient(imagegen.Config{APIKey: "test", BaseURL: server.BaseURL()})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}
