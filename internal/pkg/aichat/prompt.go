package aichat

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ManuelReschke/Marktplatz/app/models"
)

const (
	maxPromptDescription = 1000
	maxPromptProducts    = 50
)

var promptRules = []string{
	"Only answer questions about this business and its products.",
	"Never invent products, prices, opening hours or policies that are not listed above.",
	"If you do not know the answer, say so and suggest contacting the business directly.",
	"To place an order, point the customer to the WhatsApp or Instagram button on this page.",
	"Keep answers short and friendly and reply in the customer's language.",
}

// BuildSystemPrompt renders the business context. The same business and
// products always produce the same prompt.
func BuildSystemPrompt(b *models.Business, products []models.Product) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "You are the shop assistant for %q", b.DisplayName())
	if loc := strings.TrimSpace(b.Location); loc != "" {
		fmt.Fprintf(&sb, ", located in %s", loc)
	}
	sb.WriteString(".\n")

	if desc := truncate(strings.TrimSpace(b.Description), maxPromptDescription); desc != "" {
		sb.WriteString("\nAbout the business:\n")
		sb.WriteString(desc)
		sb.WriteString("\n")
	}
	if instr := strings.TrimSpace(b.AIInstructions); instr != "" {
		sb.WriteString("\nInstructions from the owner:\n")
		sb.WriteString(instr)
		sb.WriteString("\n")
	}

	sb.WriteString("\nProducts:\n")
	listed := sortedProducts(products)
	if len(listed) == 0 {
		sb.WriteString("- No products are listed yet.\n")
	}
	for _, p := range listed {
		fmt.Fprintf(&sb, "- %s: %d", strings.TrimSpace(p.Name), p.Price)
		if d := truncate(strings.TrimSpace(p.Description), 200); d != "" {
			fmt.Fprintf(&sb, " (%s)", d)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nRules:\n")
	for _, rule := range promptRules {
		sb.WriteString("- ")
		sb.WriteString(rule)
		sb.WriteString("\n")
	}
	return sb.String()
}

func sortedProducts(products []models.Product) []models.Product {
	out := make([]models.Product, 0, len(products))
	for _, p := range products {
		if p.IsActive {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	if len(out) > maxPromptProducts {
		out = out[:maxPromptProducts]
	}
	return out
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max]) + "..."
}
