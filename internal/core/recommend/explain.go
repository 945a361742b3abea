package recommend

import (
	"fmt"
	"strings"
)

// 使用者可見的訊息
const (
	MsgNoMatch           = "No encontré recomendaciones para estas condiciones. Prueba con más tiempo disponible o vuelve a intentarlo más tarde."
	MsgMissingSensorData = "Necesito tus datos de sensores (oxígeno y temperatura) antes de recomendarte una comida. Envíalos e inténtalo de nuevo."
	MsgSensorUnavailable = "No pude consultar tus datos de sensores en este momento. Inténtalo de nuevo en unos minutos."
	MsgGreeting          = "¡Hola! Soy NutriBot. Te recomiendo comidas según el clima, tu nivel de oxígeno y el tiempo que tengas para cocinar. ¿Qué te gustaría comer?"
	MsgHelp              = "Envía los datos de tus sensores y pregúntame \"¿qué puedo comer?\". Ajusta los minutos disponibles para cocinar si quieres opciones más elaboradas."
	MsgFallback          = "No entendí tu mensaje. Puedes pedirme una recomendación de comida o escribir \"ayuda\"."
)

// Explain 以第一筆推薦為主，附上其熱量（若已知），再列出其餘選項
func Explain(recs []Recommendation) string {
	if len(recs) == 0 {
		return MsgNoMatch
	}

	var b strings.Builder
	top := recs[0]
	fmt.Fprintf(&b, "Te recomiendo %s", top.DisplayName)
	if top.NutrientSummary != nil && top.NutrientSummary.EnergyKcal != nil {
		fmt.Fprintf(&b, " (%.0f kcal)", *top.NutrientSummary.EnergyKcal)
	}
	b.WriteString(".")

	if len(recs) > 1 {
		names := make([]string, 0, len(recs)-1)
		for _, r := range recs[1:] {
			names = append(names, r.DisplayName)
		}
		fmt.Fprintf(&b, " También podrías considerar: %s.", strings.Join(names, ", "))
	}
	return b.String()
}
