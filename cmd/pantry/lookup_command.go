package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"pantrypal/internal/pantry"
	"pantrypal/internal/services/nutrition"
)

func newLookupCommand(ctx *commandContext) *cobra.Command {
	var quantity float64
	var unit string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "lookup <food name>",
		Short: "Query FoodData Central for a food's nutrient profile",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.nutritionClient()
			if err != nil {
				return err
			}
			name := strings.Join(args, " ")
			profile, err := client.LookupScaled(cmd.Context(), name, quantity, unit)
			if err != nil {
				return err
			}
			profile = profile.Round(2)
			if asJSON {
				return writeJSON(cmd, profile)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s (%s %s)\n", name, strconv.FormatFloat(quantity, 'f', -1, 64), unit)
			fmt.Fprint(out, renderTable(out, []string{"Nutrient", "Amount"}, macroRows(profile), []columnAlignment{alignLeft, alignRight}))
			return nil
		},
	}
	cmd.Flags().Float64VarP(&quantity, "quantity", "q", 100, "Quantity to scale to")
	cmd.Flags().StringVarP(&unit, "unit", "u", "g", "Unit of quantity (g, kg, oz, lb, ml, l, cup, ...)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")

	cmd.AddCommand(newSuggestCommand(ctx))
	cmd.AddCommand(newUPCCommand(ctx))
	return cmd
}

func newSuggestCommand(ctx *commandContext) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "suggest <query>",
		Short: "Autocomplete food names",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var cat pantry.Category
			if strings.TrimSpace(category) != "" {
				parsed, err := pantry.ParseCategory(category)
				if err != nil {
					return err
				}
				cat = parsed
			}
			client, err := ctx.nutritionClient()
			if err != nil {
				return err
			}
			suggestions, err := client.Suggest(cmd.Context(), strings.Join(args, " "), cat)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(suggestions) == 0 {
				fmt.Fprintln(out, "No matches")
				return nil
			}
			rows := make([][]string, 0, len(suggestions))
			for _, s := range suggestions {
				rows = append(rows, []string{s.Name, s.FDCID, string(s.Category)})
			}
			fmt.Fprint(out, renderTable(out, []string{"Name", "FDC ID", "Category"}, rows, nil))
			return nil
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "Restrict to a pantry category")
	return cmd
}

func newUPCCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "upc <barcode>",
		Short: "Resolve a barcode to a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.nutritionClient()
			if err != nil {
				return err
			}
			product, err := client.LookupUPC(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd, product)
		},
	}
}

func (c *commandContext) nutritionClient() (*nutrition.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return nutrition.NewClient(nutrition.Config{
		APIKey:            cfg.Nutrition.APIKey,
		BaseURL:           cfg.Nutrition.BaseURL,
		TimeoutSeconds:    cfg.Nutrition.TimeoutSeconds,
		RequestsPerSecond: cfg.Nutrition.RequestsPerSecond,
		Burst:             cfg.Nutrition.Burst,
	}), nil
}

func macroRows(m pantry.MacroProfile) [][]string {
	format := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	return [][]string{
		{"Calories (kcal)", format(m.Calories)},
		{"Protein (g)", format(m.Protein)},
		{"Carbohydrates (g)", format(m.Carbohydrates)},
		{"Fiber (g)", format(m.Fiber)},
		{"Sugar (g)", format(m.Sugar)},
		{"Fat (g)", format(m.Fat)},
		{"Saturated fat (g)", format(m.SaturatedFat)},
		{"Sodium (mg)", format(m.Sodium)},
	}
}
