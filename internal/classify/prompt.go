package classify

import "fmt"

func buildPrompt(keyword string, volume, kd int) string {
	return fmt.Sprintf(`Analyze this equipment financing keyword and classify it:

KEYWORD: %q
SEARCH VOLUME: %d/month
KEYWORD DIFFICULTY: %d

Classify into:
1. Equipment Type: The main equipment (excavator, forklift, crane, semi-truck, etc.) or "general" if none
2. Geography: State name if mentioned (texas, california) or "none"
3. Modifier: Special qualifier (bad-credit, zero-down, startup, used) or "none"
4. Brand: Brand name if mentioned (caterpillar, john-deere, komatsu) or "none"
5. Spoke Type: What kind of page this should be:
   - "hub" = Main equipment page (just equipment name, no modifiers)
   - "financing" = Financing focused (contains financing, loan, lease)
   - "for-sale" = Buying focused (contains for sale, buy, purchase, price)
   - "rental" = Rental focused (contains rental, rent)
   - "brand" = Brand specific (contains brand name)
   - "modifier" = Has credit/payment modifier (bad credit, zero down, etc.)
6. Commercial Score: 0-10 how likely to convert (10 = ready to buy)

OUTPUT AS JSON:
{
    "equipment_type": "excavator",
    "geo": "texas",
    "modifier": "bad-credit",
    "brand": "none",
    "spoke_type": "modifier",
    "commercial_score": 8.5
}`, keyword, volume, kd)
}
