package llm_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docqa/pkg/credentials"
	"github.com/papercomputeco/docqa/pkg/llm"
)

type captured struct {
	path   string
	header http.Header
	body   map[string]any
}

func newServer(status int, payload string, got *captured) *httptest.Server {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer GinkgoRecover()
		got.path = r.URL.Path
		got.header = r.Header.Clone()
		Expect(json.NewDecoder(r.Body).Decode(&got.body)).To(Succeed())

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}))
	DeferCleanup(server.Close)
	return server
}

func clearKeys() {
	for _, p := range credentials.SupportedProviders() {
		GinkgoT().Setenv(credentials.EnvVarForProvider(p), "")
	}
}

var _ = Describe("NewCaller", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
		clearKeys()
	})

	It("rejects unknown providers", func() {
		_, err := llm.NewCaller(llm.CallerConfig{Provider: "bogus"})
		Expect(err).To(MatchError(ContainSubstring("unsupported provider: bogus")))
		Expect(err.Error()).To(ContainSubstring("available: anthropic, gemini, ollama, openai"))
	})

	It("picks a model per provider when none is configured", func() {
		Expect(llm.DefaultModel("")).To(Equal(llm.DefaultGeminiModel))
		Expect(llm.DefaultModel("openai")).To(Equal(llm.DefaultOpenAIModel))
		Expect(llm.DefaultModel("Anthropic")).To(Equal(llm.DefaultAnthropicModel))
		Expect(llm.DefaultModel("ollama")).To(Equal(llm.DefaultOllamaModel))
		Expect(llm.DefaultModel("bogus")).To(BeEmpty())
	})

	It("requires a key for keyed providers", func() {
		_, err := llm.NewCaller(llm.CallerConfig{Provider: "anthropic"})
		Expect(err).To(MatchError(llm.ErrNoAPIKey))
		Expect(err.Error()).To(ContainSubstring("ANTHROPIC_API_KEY"))
	})

	It("defaults to gemini", func() {
		_, err := llm.NewCaller(llm.CallerConfig{})
		Expect(err).To(MatchError(llm.ErrNoAPIKey))
		Expect(err.Error()).To(ContainSubstring("GEMINI_API_KEY"))
	})

	It("uses a key stored with docqa auth", func() {
		var got captured
		server := newServer(http.StatusOK, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`, &got)

		dir, err := os.MkdirTemp("", "llm-creds-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() { os.RemoveAll(dir) })

		mgr, err := credentials.NewManager(dir)
		Expect(err).NotTo(HaveOccurred())
		Expect(mgr.SetKey("gemini", "stored-key")).To(Succeed())

		call, err := llm.NewCaller(llm.CallerConfig{Provider: "gemini", BaseURL: server.URL, CredMgr: mgr})
		Expect(err).NotTo(HaveOccurred())

		_, err = call(ctx, "hi")
		Expect(err).NotTo(HaveOccurred())
		Expect(got.header.Get("x-goog-api-key")).To(Equal("stored-key"))
	})

	Describe("gemini", func() {
		It("posts to generateContent and joins the parts", func() {
			var got captured
			server := newServer(http.StatusOK,
				`{"candidates":[{"content":{"role":"model","parts":[{"text":"O prazo "},{"text":"é março."}]},"finishReason":"STOP"}]}`, &got)
			GinkgoT().Setenv("GEMINI_API_KEY", "env-key")

			call, err := llm.NewCaller(llm.CallerConfig{Provider: "gemini", BaseURL: server.URL + "/"})
			Expect(err).NotTo(HaveOccurred())

			text, err := call(ctx, "Pergunta: qual o prazo?")
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("O prazo é março."))
			Expect(got.path).To(Equal("/v1beta/models/gemini-2.5-flash:generateContent"))
			Expect(got.header.Get("x-goog-api-key")).To(Equal("env-key"))

			contents := got.body["contents"].([]any)
			parts := contents[0].(map[string]any)["parts"].([]any)
			Expect(parts[0].(map[string]any)["text"]).To(Equal("Pergunta: qual o prazo?"))
		})

		It("surfaces API errors", func() {
			var got captured
			server := newServer(http.StatusBadRequest,
				`{"error":{"code":400,"message":"API key not valid","status":"INVALID_ARGUMENT"}}`, &got)

			call, err := llm.NewCaller(llm.CallerConfig{Provider: "gemini", APIKey: "bad", BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			_, err = call(ctx, "hi")
			Expect(err).To(MatchError(ContainSubstring("API key not valid")))
		})

		It("reports blocked prompts", func() {
			var got captured
			server := newServer(http.StatusOK, `{"promptFeedback":{"blockReason":"SAFETY"}}`, &got)

			call, err := llm.NewCaller(llm.CallerConfig{Provider: "gemini", APIKey: "k", BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			_, err = call(ctx, "hi")
			Expect(err).To(MatchError(llm.ErrEmptyResponse))
			Expect(err.Error()).To(ContainSubstring("SAFETY"))
		})
	})

	Describe("openai", func() {
		It("sends a chat completion", func() {
			var got captured
			server := newServer(http.StatusOK,
				`{"id":"x","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"resposta"},"finish_reason":"stop"}]}`, &got)

			call, err := llm.NewCaller(llm.CallerConfig{Provider: "openai", APIKey: "sk-test", BaseURL: server.URL + "/v1"})
			Expect(err).NotTo(HaveOccurred())

			text, err := call(ctx, "prompt")
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("resposta"))
			Expect(got.path).To(Equal("/v1/chat/completions"))
			Expect(got.header.Get("Authorization")).To(Equal("Bearer sk-test"))
			Expect(got.body["model"]).To(Equal(llm.DefaultOpenAIModel))
		})

		It("reports missing choices", func() {
			var got captured
			server := newServer(http.StatusOK, `{"id":"x","choices":[]}`, &got)

			call, err := llm.NewCaller(llm.CallerConfig{Provider: "openai", APIKey: "sk-test", BaseURL: server.URL + "/v1"})
			Expect(err).NotTo(HaveOccurred())

			_, err = call(ctx, "prompt")
			Expect(err).To(MatchError(llm.ErrEmptyResponse))
		})
	})

	Describe("anthropic", func() {
		It("sends a messages request", func() {
			var got captured
			server := newServer(http.StatusOK, `{"content":[{"type":"text","text":"hello"}]}`, &got)

			call, err := llm.NewCaller(llm.CallerConfig{Provider: "anthropic", APIKey: "sk-ant", BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			text, err := call(ctx, "prompt")
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("hello"))
			Expect(got.path).To(Equal("/v1/messages"))
			Expect(got.header.Get("x-api-key")).To(Equal("sk-ant"))
			Expect(got.header.Get("anthropic-version")).To(Equal("2023-06-01"))
			Expect(got.body["model"]).To(Equal(llm.DefaultAnthropicModel))
		})

		It("surfaces non-200 responses", func() {
			var got captured
			server := newServer(http.StatusTooManyRequests, `{"error":{"message":"rate limited"}}`, &got)

			call, err := llm.NewCaller(llm.CallerConfig{Provider: "anthropic", APIKey: "sk-ant", BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			_, err = call(ctx, "prompt")
			Expect(err).To(MatchError(ContainSubstring("status 429")))
		})
	})

	Describe("ollama", func() {
		It("needs no key and disables streaming", func() {
			var got captured
			server := newServer(http.StatusOK, `{"message":{"role":"assistant","content":"local"},"done":true}`, &got)

			call, err := llm.NewCaller(llm.CallerConfig{Provider: "ollama", BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			text, err := call(ctx, "prompt")
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("local"))
			Expect(got.path).To(Equal("/api/chat"))
			Expect(got.body["stream"]).To(BeFalse())
			Expect(got.body["model"]).To(Equal(llm.DefaultOllamaModel))
		})

		It("surfaces error payloads", func() {
			var got captured
			server := newServer(http.StatusOK, `{"error":"model not found"}`, &got)

			call, err := llm.NewCaller(llm.CallerConfig{Provider: "ollama", BaseURL: server.URL})
			Expect(err).NotTo(HaveOccurred())

			_, err = call(ctx, "prompt")
			Expect(err).To(MatchError(ContainSubstring("model not found")))
		})
	})
})

var _ = Describe("HasCredentials", func() {
	BeforeEach(clearKeys)

	It("is true for ollama", func() {
		Expect(llm.HasCredentials(llm.CallerConfig{Provider: "ollama"})).To(BeTrue())
	})

	It("follows the environment", func() {
		Expect(llm.HasCredentials(llm.CallerConfig{Provider: "openai"})).To(BeFalse())
		GinkgoT().Setenv("OPENAI_API_KEY", "sk")
		Expect(llm.HasCredentials(llm.CallerConfig{Provider: "openai"})).To(BeTrue())
	})
})
