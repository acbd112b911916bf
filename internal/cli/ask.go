package cli

import (
	"strings"

	"github.com/spf13/cobra"
)

const answerBannerWidth = 80

func newAskCmd(app *App) *cobra.Command {
	var noLLM bool

	cmd := &cobra.Command{
		Use:   "ask \"<câu hỏi>\"",
		Short: "Answer one free-text question about Vietnamese equities",
		Long: `Ask resolves a Vietnamese natural-language question into a data action,
fetches the data and prints a composed answer.

Examples:
  vnquery ask "Lấy dữ liệu OHLCV 10 ngày gần nhất HPG"
  vnquery ask "RSI 14 của VIC trong 2 tuần"
  vnquery ask "So sánh giá VCB và HPG trong 1 tháng"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := NewOutput(cmd)
			question := args[0]

			if !output.IsJSON() {
				output.Println("🔍 Đang xử lý...")
				output.Println()
			}

			result := app.Agent.Handle(cmd.Context(), question, !noLLM)

			if output.IsJSON() {
				return output.JSON(result)
			}

			banner := strings.Repeat("=", answerBannerWidth)
			output.Println(banner)
			output.Println("💡 TRẢ LỜI:")
			output.Println(banner)
			output.Println(result.Answer)
			output.Println(banner)
			if result.Meta != nil && len(result.Meta.FailedSymbols) > 0 {
				output.Warning("Không lấy được dữ liệu cho: %s", strings.Join(result.Meta.FailedSymbols, ", "))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noLLM, "no-llm", false, "skip the language model (answers with the not-configured message)")
	return cmd
}
