// Package main provides the hdrescue CLI tool for deriving Bitcoin keys from
// a BIP39 mnemonic and exporting them for import into a wallet.
package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/complex-gh/hdrescue"
	"github.com/mattn/go-isatty"
	"github.com/mattn/go-tty"
	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"github.com/tyler-smith/go-bip39"
	"github.com/tyler-smith/go-bip39/wordlists"
	"golang.org/x/term"
	lang "golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

const (
	maxWidth = 72
)

var (
	baseStyle  = lipgloss.NewStyle().Margin(0, 0, 1, 2) //nolint:mnd
	red        = lipgloss.Color(completeColor("#FF4444", "196", "9"))
	errorStyle = baseStyle.
			Foreground(red).
			Background(lipgloss.AdaptiveColor{Light: completeColor("#FFEBEB", "255", "7"), Dark: completeColor("#2B1A1A", "235", "8")}).
			Padding(1, 2) //nolint:mnd

	language       string
	networkName    string
	pathStr        string
	styleName      string
	labelPrefix    string
	startIndex     uint32
	keyCount       uint32
	withPassphrase bool
	asJSON         bool
	asImports      bool
	outputPath     string

	rootCmd = &cobra.Command{
		Use:   "hdrescue",
		Short: "Derive Bitcoin keys from a BIP39 mnemonic for wallet import",
		Long: `Derive Bitcoin keys from a BIP39 mnemonic for wallet import.

The mnemonic is read from stdin when piped, or prompted for without echo
otherwise. It is never accepted as a command line argument, so it cannot
leak into your shell history or the process table.

Each derived key is reported with its derivation path, WIF (or a wpkh()
descriptor), compressed public key, address and label. Descriptor
checksums are not computed; let the wallet fill them in, for example via
getdescriptorinfo.`,
		Example: `  echo "$MNEMONIC" | hdrescue --network signet --count 10
  hdrescue -n testnet -p "m/84'/1'/0'/0" -c 5 --style descriptor
  hdrescue --bip39-passphrase --json
  hdrescue -n signet --import-requests -o descriptors.json`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := setLanguage(language); err != nil {
				return err
			}

			net, err := hdrescue.ParseNetwork(networkName)
			if err != nil {
				return err
			}
			style, err := hdrescue.ParseStyle(styleName)
			if err != nil {
				return err
			}
			base, err := hdrescue.ParsePath(pathStr)
			if err != nil {
				return err
			}
			if keyCount == 0 {
				return fmt.Errorf("count must be at least 1")
			}

			mnemonic, passphrase, err := readSecrets()
			if err != nil {
				return formatSecretError(err)
			}

			master, err := hdrescue.NewMasterFromMnemonic(mnemonic, passphrase)
			if err != nil {
				return formatSecretError(err)
			}

			results, err := hdrescue.DeriveBatch(master, base, startIndex, keyCount, net, style, labelPrefix)
			if err != nil {
				return err
			}

			failed := 0
			for _, res := range results {
				if res.Err != nil {
					failed++
					fmt.Fprintf(os.Stderr, "warning: index %d: %v\n", res.Index, res.Err)
				}
			}
			records := hdrescue.Records(results)
			if len(records) == 0 {
				return fmt.Errorf("no keys could be derived (%d failures)", failed)
			}

			return writeRecords(cmd.OutOrStdout(), records)
		},
	}

	wordCount int

	newCmd = &cobra.Command{
		Use:   "new",
		Short: "Generate a fresh BIP39 mnemonic",
		Long: `Generate a fresh BIP39 mnemonic from system entropy.

Valid word counts are 12, 15, 18, 21 or 24.`,
		Example: `  hdrescue new
  hdrescue new --words 12`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(_ *cobra.Command, _ []string) error {
			if err := setLanguage(language); err != nil {
				return err
			}
			bits, ok := map[int]int{12: 128, 15: 160, 18: 192, 21: 224, 24: 256}[wordCount]
			if !ok {
				return fmt.Errorf("invalid word count: %d (must be 12, 15, 18, 21 or 24)", wordCount)
			}
			mnemonic, err := hdrescue.NewMnemonic(bits)
			if err != nil {
				return err
			}
			fmt.Println(mnemonic)
			return nil
		},
	}

	xprvCmd = &cobra.Command{
		Use:   "xprv [path]...",
		Short: "Print account-level extended keys for one or more paths",
		Long: `Print account-level extended private and public keys for one or more
derivation paths. With no arguments the common single-sig and multisig
account paths are used.`,
		Example: `  echo "$MNEMONIC" | hdrescue xprv --network signet
  hdrescue xprv "m/84'/1'/0'" "m/49'/1'/0'"`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := setLanguage(language); err != nil {
				return err
			}
			net, err := hdrescue.ParseNetwork(networkName)
			if err != nil {
				return err
			}

			paths := args
			if len(paths) == 0 {
				paths = []string{"m/84'/1'/0'", "m/49'/1'/0'", "m/48'/1'/0'/1'", "m/48'/1'/0'/2'"}
			}

			mnemonic, passphrase, err := readSecrets()
			if err != nil {
				return formatSecretError(err)
			}
			master, err := hdrescue.NewMasterFromMnemonic(mnemonic, passphrase)
			if err != nil {
				return formatSecretError(err)
			}

			out := cmd.OutOrStdout()
			for _, p := range paths {
				path, err := hdrescue.ParsePath(p)
				if err != nil {
					return err
				}
				key, err := master.DerivePath(path)
				if err != nil {
					return err
				}
				xprv, err := key.ExtendedPrivate(net)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "%s:\n", path)
				fmt.Fprintf(out, "  xprv: %s\n", xprv)
				fmt.Fprintf(out, "  xpub: %s\n", key.ExtendedPublic(net))
				fmt.Fprintln(out)
			}
			return nil
		},
	}

	manCmd = &cobra.Command{
		Use:          "man",
		Args:         cobra.NoArgs,
		Short:        "generate man pages",
		Hidden:       true,
		SilenceUsage: true,
		RunE: func(*cobra.Command, []string) error {
			manPage, err := mcobra.NewManPage(1, rootCmd)
			if err != nil {
				//nolint: wrapcheck
				return err
			}
			fmt.Println(manPage.Build(roff.NewDocument()))
			return nil
		},
	}

	completionCmd = &cobra.Command{
		Use:                   "completion [bash|zsh|fish|powershell]",
		Short:                 "Generate shell completion script",
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		SilenceUsage:          true,
		RunE: func(_ *cobra.Command, args []string) error {
			switch args[0] {
			case "bash":
				return rootCmd.GenBashCompletion(os.Stdout)
			case "zsh":
				return rootCmd.GenZshCompletion(os.Stdout)
			case "fish":
				return rootCmd.GenFishCompletion(os.Stdout, true)
			case "powershell":
				return rootCmd.GenPowerShellCompletionWithDesc(os.Stdout)
			default:
				return fmt.Errorf("unknown shell: %s", args[0])
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&language, "language", "l", "en", "Mnemonic wordlist language")
	rootCmd.PersistentFlags().StringVarP(&networkName, "network", "n", "signet", "Network: mainnet, testnet or signet")
	rootCmd.PersistentFlags().BoolVar(&withPassphrase, "bip39-passphrase", false, "Prompt for an optional BIP39 passphrase")
	rootCmd.Flags().StringVarP(&pathStr, "path", "p", "m/84'/1'/0'/0", "Base derivation path for the key range")
	rootCmd.Flags().Uint32Var(&startIndex, "start", 0, "First leaf index to derive")
	rootCmd.Flags().Uint32VarP(&keyCount, "count", "c", 10, "Number of sibling keys to derive")
	rootCmd.Flags().StringVarP(&styleName, "style", "s", "wif", "Export style: wif or descriptor")
	rootCmd.Flags().StringVar(&labelPrefix, "label", "key", "Label prefix; each key is labeled <prefix>_<index>")
	rootCmd.Flags().BoolVar(&asJSON, "json", false, "Emit records as a JSON array")
	rootCmd.Flags().BoolVar(&asImports, "import-requests", false, "Emit importdescriptors request objects instead of records")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write JSON output to a file (mode 0600) instead of stdout")
	newCmd.Flags().IntVarP(&wordCount, "words", "w", 24, "Word count: 12, 15, 18, 21 or 24")
	rootCmd.AddCommand(newCmd)
	rootCmd.AddCommand(xprvCmd)
	rootCmd.AddCommand(manCmd)
	rootCmd.AddCommand(completionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// readSecrets reads the mnemonic (and, when requested, the BIP39 passphrase)
// from a piped stdin or an interactive no-echo prompt. Secrets never travel
// through argv.
func readSecrets() (mnemonic, passphrase string, err error) {
	if fi, _ := os.Stdin.Stat(); (fi.Mode() & os.ModeCharDevice) == 0 {
		scanner := bufio.NewScanner(os.Stdin)
		if scanner.Scan() {
			mnemonic = strings.TrimSpace(scanner.Text())
		}
		if withPassphrase && scanner.Scan() {
			passphrase = strings.TrimSpace(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			return "", "", fmt.Errorf("could not read stdin: %w", err)
		}
	} else {
		line, err := readPassword("Enter the mnemonic (input is hidden): ")
		if err != nil {
			return "", "", err
		}
		mnemonic = strings.TrimSpace(string(line))
		if withPassphrase {
			pass, err := readPassword("Enter the BIP39 passphrase: ")
			if err != nil {
				return "", "", err
			}
			passphrase = string(pass)
		}
	}
	if mnemonic == "" {
		return "", "", fmt.Errorf("no mnemonic provided")
	}
	return mnemonic, passphrase, nil
}

func readPassword(msg string) ([]byte, error) {
	defer fmt.Fprintf(os.Stderr, "\n")
	_, _ = fmt.Fprint(os.Stderr, msg)
	t, err := tty.Open()
	if err != nil {
		return nil, fmt.Errorf("could not open tty: %w", err)
	}
	defer t.Close()                                     //nolint: errcheck
	pass, err := term.ReadPassword(int(t.Input().Fd())) //nolint: gosec
	if err != nil {
		return nil, fmt.Errorf("could not read secret: %w", err)
	}
	return pass, nil
}

// writeRecords renders records as text, JSON, or importdescriptors JSON,
// either to w or to --output with restrictive permissions.
func writeRecords(w io.Writer, records []hdrescue.ExportRecord) error {
	if !asJSON && !asImports && outputPath == "" {
		for _, rec := range records {
			fmt.Fprintf(w, "Path:    %s\n", rec.Path)
			fmt.Fprintf(w, "Address: %s\n", rec.Address)
			if rec.Descriptor != "" {
				fmt.Fprintf(w, "Desc:    %s\n", rec.Descriptor)
			} else {
				fmt.Fprintf(w, "WIF:     %s\n", rec.WIF)
			}
			fmt.Fprintf(w, "PubKey:  %s\n", rec.PubKey)
			fmt.Fprintf(w, "Label:   %s\n", rec.Label)
			fmt.Fprintln(w)
		}
		return nil
	}

	var payload any = records
	if asImports {
		payload = hdrescue.ImportRequests(records)
	}
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode records: %w", err)
	}
	data = append(data, '\n')

	if outputPath == "" {
		_, err = w.Write(data)
		return err
	}
	// The file holds private key material.
	if err := os.WriteFile(outputPath, data, 0o600); err != nil {
		return fmt.Errorf("could not write %s: %w", outputPath, err)
	}
	fmt.Fprintf(os.Stderr, "wrote %d records to %s\n", len(records), outputPath)
	return nil
}

func getWidth(maxw int) int {
	w, _, err := term.GetSize(int(os.Stdout.Fd())) //nolint: gosec
	if err != nil || w > maxw {
		return maxWidth
	}
	return w
}

func renderBlock(w io.Writer, s lipgloss.Style, width int, str string) {
	_, _ = io.WriteString(w, s.Width(width).Render(str))
	_, _ = io.WriteString(w, "\n")
}

// formatSecretError renders mnemonic and passphrase problems in a styled
// block so they stand out, then returns a plain error for the exit code.
func formatSecretError(err error) error {
	if isatty.IsTerminal(os.Stdout.Fd()) {
		b := strings.Builder{}
		w := getWidth(maxWidth)

		b.WriteRune('\n')
		renderBlock(&b, errorStyle, w, err.Error())
		b.WriteRune('\n')

		fmt.Print(b.String())
	}
	return err
}

func completeColor(truecolor, ansi256, ansi string) string {
	//nolint: exhaustive
	switch lipgloss.ColorProfile() {
	case termenv.TrueColor:
		return truecolor
	case termenv.ANSI256:
		return ansi256
	}
	return ansi
}

// setLanguage sets the wordlist used for mnemonic validation.
func setLanguage(language string) error {
	list := getWordlist(language)
	if list == nil {
		return fmt.Errorf("this language is not supported")
	}
	bip39.SetWordList(list)
	return nil
}

func sanitizeLang(s string) string {
	return strings.ReplaceAll(strings.ToLower(s), " ", "-")
}

var wordLists = map[lang.Tag][]string{
	lang.Chinese:              wordlists.ChineseSimplified,
	lang.SimplifiedChinese:    wordlists.ChineseSimplified,
	lang.TraditionalChinese:   wordlists.ChineseTraditional,
	lang.Czech:                wordlists.Czech,
	lang.AmericanEnglish:      wordlists.English,
	lang.BritishEnglish:       wordlists.English,
	lang.English:              wordlists.English,
	lang.French:               wordlists.French,
	lang.Italian:              wordlists.Italian,
	lang.Japanese:             wordlists.Japanese,
	lang.Korean:               wordlists.Korean,
	lang.Spanish:              wordlists.Spanish,
	lang.EuropeanSpanish:      wordlists.Spanish,
	lang.LatinAmericanSpanish: wordlists.Spanish,
}

func getWordlist(language string) []string {
	language = sanitizeLang(language)
	tag := lang.Make(language)
	en := display.English.Languages() // default language name matcher
	for t := range wordLists {
		if sanitizeLang(en.Name(t)) == language {
			tag = t
			break
		}
	}
	if tag == lang.Und { // Unknown language
		return nil
	}
	base, _ := tag.Base()
	btag := lang.MustParse(base.String())
	wl := wordLists[tag]
	if wl == nil {
		return wordLists[btag]
	}
	return wl
}
