package searchcmder_test

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	searchcmder "github.com/papercomputeco/docqa/cmd/docqa/search"
)

const testCorpus = `--- edital.txt ---
O prazo para envio das propostas é de trinta dias corridos.
--- contrato.txt ---
O pagamento será feito em duas parcelas iguais.
`

var _ = Describe("search command", func() {
	var (
		tmpDir     string
		corpusPath string
		out        *bytes.Buffer
	)

	BeforeEach(func() {
		tmpDir = GinkgoT().TempDir()
		corpusPath = filepath.Join(tmpDir, "extracted_text.txt")
		Expect(os.WriteFile(corpusPath, []byte(testCorpus), 0o600)).To(Succeed())
		out = &bytes.Buffer{}
	})

	newCmd := func(args ...string) *cobra.Command {
		cmd := searchcmder.NewSearchCmd()
		cmd.PersistentFlags().String("config-dir", "", "Override path to .docqa/ config directory")
		cmd.SetArgs(append([]string{
			"--config-dir", filepath.Join(tmpDir, ".docqa"),
			"--corpus", corpusPath,
			"--embedding-provider", "hash",
			"--embedding-dimensions", "256",
		}, args...))
		cmd.SetOut(out)
		cmd.SetErr(out)
		return cmd
	}

	It("requires a query", func() {
		cmd := newCmd()
		Expect(cmd.Execute()).To(HaveOccurred())
	})

	It("ranks the matching document first", func() {
		cmd := newCmd("pagamento parcelas")
		Expect(cmd.Execute()).To(Succeed())

		Expect(out.String()).To(ContainSubstring("Search Results for:"))
		first := strings.Index(out.String(), "#1")
		contract := strings.Index(out.String(), "contrato.txt [1]")
		edital := strings.Index(out.String(), "edital.txt [0]")
		Expect(first).To(BeNumerically(">=", 0))
		Expect(contract).To(BeNumerically(">", first))
		Expect(edital).To(BeNumerically(">", contract))
		Expect(out.String()).To(ContainSubstring("distance: "))
	})

	It("prints only slots with --quiet", func() {
		cmd := newCmd("pagamento parcelas", "--quiet", "-k", "1")
		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(Equal("1\n"))
	})

	It("reports an empty corpus as no results", func() {
		Expect(os.WriteFile(corpusPath, nil, 0o600)).To(Succeed())

		cmd := newCmd("qualquer coisa")
		Expect(cmd.Execute()).To(Succeed())
		Expect(out.String()).To(ContainSubstring("No results found."))
	})
})
