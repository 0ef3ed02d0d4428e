package mapping

const (
	PeriodDay   = "DIA"
	PeriodNight = "NOITE"
)

// Rule maps every item name matching Pattern (case-insensitive) to Label.
type Rule struct {
	Pattern string `yaml:"pattern" json:"pattern"`
	Label   string `yaml:"label" json:"label"`
	Period  string `yaml:"period,omitempty" json:"period,omitempty"`
}

// DefaultRules is evaluated top to bottom and stops at the first match, so a
// generic term listed early wins over a more specific phrase listed later.
var DefaultRules = []Rule{
	// condições de saúde
	{Pattern: `ansiedade`, Label: "Equilíbrio Emocional", Period: PeriodDay},
	{Pattern: `equilíbrio\s+emocional`, Label: "Equilíbrio Emocional", Period: PeriodDay},
	{Pattern: `imunidade\s+fraca`, Label: "Imunidade Eficiente", Period: PeriodDay},
	{Pattern: `imunidade\s+eficiente`, Label: "Imunidade Eficiente", Period: PeriodDay},
	{Pattern: `problemas\s+de\s+sono`, Label: "Sono Regenerativo", Period: PeriodNight},
	{Pattern: `sono\s+regenerativo`, Label: "Sono Regenerativo", Period: PeriodNight},
	{Pattern: `problemas\s+articulares`, Label: "Saúde Articular", Period: PeriodDay},
	{Pattern: `saúde\s+articular`, Label: "Saúde Articular", Period: PeriodDay},
	{Pattern: `problemas\s+femininos`, Label: "Saúde da Mulher", Period: PeriodDay},
	{Pattern: `problemas\s+masculinos`, Label: "Saúde do Homem", Period: PeriodDay},
	{Pattern: `má\s+digestão`, Label: "Enzimas Digestivas", Period: PeriodDay},
	{Pattern: `enzimas\s+digestivas`, Label: "Enzimas Digestivas", Period: PeriodDay},
	{Pattern: `problemas\s+intestinais`, Label: "Equilíbrio Intestinal", Period: PeriodNight},
	{Pattern: `equilíbrio\s+intestinal`, Label: "Equilíbrio Intestinal", Period: PeriodNight},
	{Pattern: `lipedema`, Label: "Auxílio para Lipedema", Period: PeriodDay},
	{Pattern: `auxílio\s+para\s+lipedema`, Label: "Auxílio para Lipedema", Period: PeriodDay},
	{Pattern: `dermatites`, Label: "Controle da Dermatite", Period: PeriodDay},
	{Pattern: `controle\s+da\s+dermatite`, Label: "Controle da Dermatite", Period: PeriodDay},
	{Pattern: `funções\s+cognitivas`, Label: "Memória e Cognição", Period: PeriodDay},
	{Pattern: `memória\s+e\s+cognição`, Label: "Memória e Cognição", Period: PeriodDay},
	{Pattern: `perfil\s+glicêmico`, Label: "Controle Glicêmico", Period: PeriodDay},
	{Pattern: `controle\s+glicêmico`, Label: "Controle Glicêmico", Period: PeriodDay},
	{Pattern: `saúde\s+cardiovascular`, Label: "Saúde Cardiovascular", Period: PeriodDay},
	{Pattern: `equilíbrio\s+do\s+colesterol`, Label: "Equilíbrio do Colesterol", Period: PeriodDay},
	{Pattern: `perda\s+de\s+cabelos`, Label: "Antiqueda Capilar", Period: PeriodDay},
	{Pattern: `antiqueda\s+capilar`, Label: "Antiqueda Capilar", Period: PeriodDay},
	{Pattern: `hipotiroidismo`, Label: "Auxílio ao Hipotireoidismo", Period: PeriodDay},
	{Pattern: `auxílio\s+ao\s+hipotireoidismo`, Label: "Auxílio ao Hipotireoidismo", Period: PeriodDay},

	// produtos especiais
	{Pattern: `my\s+baby`, Label: "Saúde do Bebê", Period: PeriodDay},
	{Pattern: `my\s+kids`, Label: "Saúde Infantil", Period: PeriodDay},
	{Pattern: `puríssima\s+gestante`, Label: "Saúde da Gestante", Period: PeriodDay},
	{Pattern: `cápsula\s+longevity`, Label: "Longevity", Period: PeriodDay},
	{Pattern: `pouch\s+longevity`, Label: "Longevity", Period: PeriodDay},
	{Pattern: `cápsula\s+vital`, Label: "Vital", Period: PeriodDay},
	{Pattern: `pouch\s+vital`, Label: "Vital", Period: PeriodDay},
}
