package main

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gnemet/SlideText/internal/pptx"
)

var shapesCmd = &cobra.Command{
	Use:   "shapes <file.pptx>",
	Short: "Dump the decoded shapes of every slide",
	Long: `Print the shape tree decoded from each slide part: element, placeholder
type and text. Useful when a slide's title or body is not classified the
way you expect.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pres, err := pptx.Open(args[0])
		if err != nil {
			return err
		}

		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, slide := range pres.Slides {
			fmt.Fprintf(tw, "--- Slide %d (%s) ---\n", slide.Number, slide.Part)
			for _, sh := range slide.Shapes {
				fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", sh.ID, sh.Element, placeholderLabel(sh), strconv.Quote(sh.Text()))
			}
		}
		return tw.Flush()
	},
}

func placeholderLabel(sh pptx.Shape) string {
	switch {
	case !sh.IsPlaceholder:
		return "-"
	case sh.Placeholder == "":
		return "ph"
	default:
		return "ph:" + sh.Placeholder
	}
}
