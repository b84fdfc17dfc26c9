package extractcmder

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/papercomputeco/docqa/pkg/corpus"
)

var _ = Describe("extract command", func() {
	var (
		tmpDir  string
		origDir string
		out     *bytes.Buffer
		cmder   *extractCommander
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		out = &bytes.Buffer{}
		cmder = &extractCommander{}

		var err error
		origDir, err = os.Getwd()
		Expect(err).NotTo(HaveOccurred())
		Expect(os.Chdir(tmpDir)).To(Succeed())
		DeferCleanup(func() {
			Expect(os.Chdir(origDir)).To(Succeed())
		})
	})

	run := func(args ...string) error {
		cmd := newExtractCmd(cmder)
		cmd.PersistentFlags().String("config-dir", "", "Override path to .docqa/ config directory")
		cmd.SetArgs(append([]string{"--config-dir", filepath.Join(tmpDir, ".docqa")}, args...))
		cmd.SetOut(out)
		cmd.SetErr(out)
		return cmd.Execute()
	}

	write := func(rel, content string) string {
		path := filepath.Join(tmpDir, rel)
		Expect(os.MkdirAll(filepath.Dir(path), 0o755)).To(Succeed())
		Expect(os.WriteFile(path, []byte(content), 0o644)).To(Succeed())
		return path
	}

	It("extracts data/* into extracted_text.txt by default", func() {
		write("data/a.txt", "primeiro documento")
		write("data/b.md", "# Título\n\nsegundo documento")
		write("data/ignored.xyz", "not extracted")

		Expect(run()).To(Succeed())

		docs, err := corpus.Load(filepath.Join(tmpDir, "extracted_text.txt"))
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(2))
		Expect(docs[0]).To(Equal(corpus.Document{ID: "a.txt", Text: "primeiro documento"}))
		Expect(docs[1].ID).To(Equal("b.md"))
		Expect(docs[1].Text).To(ContainSubstring("Título"))
		Expect(docs[1].Text).To(ContainSubstring("segundo documento"))
		Expect(out.String()).To(ContainSubstring("Text extraction completed!"))
	})

	It("writes to the --output path", func() {
		write("in/page.html", "<html><body><p>conteúdo da página</p><script>x()</script></body></html>")

		Expect(run("in/*.html", "-o", "out/corpus.txt")).To(Succeed())

		docs, err := corpus.Load(filepath.Join(tmpDir, "out", "corpus.txt"))
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(1))
		Expect(docs[0].Text).To(ContainSubstring("conteúdo da página"))
		Expect(docs[0].Text).NotTo(ContainSubstring("x()"))
	})

	It("keeps a failed file as an empty document", func() {
		write("data/ok.txt", "texto válido")
		write("data/broken.docx", "this is not a zip archive")

		Expect(run()).To(Succeed())

		docs, err := corpus.Load(filepath.Join(tmpDir, "extracted_text.txt"))
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(ConsistOf(
			corpus.Document{ID: "broken.docx", Text: ""},
			corpus.Document{ID: "ok.txt", Text: "texto válido"},
		))
		Expect(out.String()).To(ContainSubstring("1 ok, 1 failed"))
	})

	It("runs images through OCR with the configured language", func() {
		img := image.NewGray(image.Rect(0, 0, 8, 8))
		for i := range img.Pix {
			img.Pix[i] = uint8(i * 4)
		}
		img.SetGray(0, 0, color.Gray{Y: 255})
		f, err := os.Create(filepath.Join(tmpDir, "scan.png"))
		Expect(err).NotTo(HaveOccurred())
		Expect(png.Encode(f, img)).To(Succeed())
		Expect(f.Close()).To(Succeed())

		var calls [][]string
		cmder.lookPath = func(string) error { return nil }
		cmder.run = func(_ context.Context, name string, args ...string) ([]byte, error) {
			calls = append(calls, append([]string{name}, args...))
			if name != "tesseract" {
				return nil, errors.New("unexpected tool")
			}
			return []byte("texto reconhecido\n"), nil
		}

		Expect(run("scan.png", "--ocr-lang", "eng", "-j", "1")).To(Succeed())

		Expect(calls).To(HaveLen(1))
		Expect(calls[0]).To(ContainElements("-l", "eng"))

		docs, err := corpus.Load(filepath.Join(tmpDir, "extracted_text.txt"))
		Expect(err).NotTo(HaveOccurred())
		Expect(docs).To(HaveLen(1))
		Expect(docs[0].Text).To(ContainSubstring("texto reconhecido"))
	})

	It("fails when nothing matches", func() {
		Expect(run("nothing/*.pdf")).To(MatchError(ContainSubstring("no supported files")))
		_, err := os.Stat(filepath.Join(tmpDir, "extracted_text.txt"))
		Expect(os.IsNotExist(err)).To(BeTrue())
	})
})
