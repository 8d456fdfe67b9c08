package catalog

import "time"

// Tuning is the balance sheet of the simulation. DefaultTuning holds the
// shipped values; tuning.yaml overrides any subset of them.
type Tuning struct {
	Start       Start       `yaml:"start" json:"start"`
	Probability Probability `yaml:"probability" json:"probability"`
	Adaptive    Adaptive    `yaml:"adaptive" json:"adaptive"`
	Trace       Trace       `yaml:"trace" json:"trace"`
	Retaliation Retaliation `yaml:"retaliation" json:"retaliation"`
	Economy     Economy     `yaml:"economy" json:"economy"`
	BlackMarket BlackMarket `yaml:"blackMarket" json:"blackMarket"`
	Actions     Actions     `yaml:"actions" json:"actions"`
	Ticks       Ticks       `yaml:"ticks" json:"ticks"`
}

// Start describes a fresh player.
type Start struct {
	Credits  float64  `yaml:"credits" json:"credits"`
	Items    []string `yaml:"items" json:"items"`
	Programs []string `yaml:"programs" json:"programs"`
}

type Probability struct {
	MinChance             float64  `yaml:"minChance" json:"minChance"`
	DefensePerServerLevel float64  `yaml:"defensePerServerLevel" json:"defensePerServerLevel"`
	HardenedTags          []string `yaml:"hardenedTags" json:"hardenedTags"`
	BlackIceTag           string   `yaml:"blackIceTag" json:"blackIceTag"`
}

// Adaptive configures server hardening.
type Adaptive struct {
	TriggerAt       float64       `yaml:"triggerAt" json:"triggerAt"`
	ScanTriggerAt   float64       `yaml:"scanTriggerAt" json:"scanTriggerAt"`
	OnScanChance    float64       `yaml:"onScanChance" json:"onScanChance"`
	IcePerLevel     float64       `yaml:"icePerLevel" json:"icePerLevel"`
	Cooldown        time.Duration `yaml:"cooldown" json:"cooldown"`
	MaxLevels       int           `yaml:"maxLevels" json:"maxLevels"`
	MinDrop         float64       `yaml:"minDrop" json:"minDrop"`
	MaxBurstLevels  int           `yaml:"maxBurstLevels" json:"maxBurstLevels"`
	MulPerLevel     float64       `yaml:"mulPerLevel" json:"mulPerLevel"`
	CapDropPerLevel float64       `yaml:"capDropPerLevel" json:"capDropPerLevel"`
	CapCeiling      float64       `yaml:"capCeiling" json:"capCeiling"`
	CapFloor        float64       `yaml:"capFloor" json:"capFloor"`
	// StampOnGuardFailure records lastAppliedAt even when a guard blocks escalation.
	StampOnGuardFailure bool `yaml:"stampOnGuardFailure" json:"stampOnGuardFailure"`

	FailHeatPerLevel          float64 `yaml:"failHeatPerLevel" json:"failHeatPerLevel"`
	RetaliationChancePerLevel float64 `yaml:"retaliationChancePerLevel" json:"retaliationChancePerLevel"`
	RetaliationDamagePerLevel float64 `yaml:"retaliationDamagePerLevel" json:"retaliationDamagePerLevel"`
}

// TraceEffects scale linearly with the trace level.
type TraceEffects struct {
	IcePerLevel            float64 `yaml:"icePerLevel" json:"icePerLevel"`
	ChanceMinusPerLevel    float64 `yaml:"chanceMinusPerLevel" json:"chanceMinusPerLevel"`
	HeatAttemptAddPerLevel float64 `yaml:"heatAttemptAddPerLevel" json:"heatAttemptAddPerLevel"`
}

// ScanPanic is the immediate countermeasure nested inside an arming trace.
type ScanPanic struct {
	P         float64               `yaml:"p" json:"p"`
	HeatSpike map[int]float64       `yaml:"heatSpike" json:"heatSpike"`
	Lockout   map[int]time.Duration `yaml:"lockout" json:"lockout"`
}

type Trace struct {
	Window          time.Duration         `yaml:"window" json:"window"`
	Base            float64               `yaml:"base" json:"base"`
	PerScan         float64               `yaml:"perScan" json:"perScan"`
	HeatBonusFrom   float64               `yaml:"heatBonusFrom" json:"heatBonusFrom"`
	HeatPer20Bonus  float64               `yaml:"heatPer20Bonus" json:"heatPer20Bonus"`
	CorpMul         float64               `yaml:"corpMul" json:"corpMul"`
	CityMul         float64               `yaml:"cityMul" json:"cityMul"`
	MaxP            float64               `yaml:"maxP" json:"maxP"`
	LevelByAttempts []int                 `yaml:"levelByAttempts" json:"levelByAttempts"`
	Durations       map[int]time.Duration `yaml:"durations" json:"durations"`
	DefaultDuration time.Duration         `yaml:"defaultDuration" json:"defaultDuration"`
	Effects         TraceEffects          `yaml:"effects" json:"effects"`
	ScanPanic       ScanPanic             `yaml:"scanPanic" json:"scanPanic"`
}

// PressureRule is the retaliation pressure an active event type adds.
type PressureRule struct {
	Scope     EventScope `yaml:"scope" json:"scope"`
	ChanceAdd float64    `yaml:"chanceAdd" json:"chanceAdd"`
	HeatMul   float64    `yaml:"heatMul" json:"heatMul"`
	CredMul   float64    `yaml:"credMul" json:"credMul"`
}

type HeatDamage struct {
	Base     float64 `yaml:"base" json:"base"`
	PerLevel float64 `yaml:"perLevel" json:"perLevel"`
	CityMul  float64 `yaml:"cityMul" json:"cityMul"`
	CorpMul  float64 `yaml:"corpMul" json:"corpMul"`
}

type CreditDamage struct {
	PctOfGainMin   float64 `yaml:"pctOfGainMin" json:"pctOfGainMin"`
	PctOfGainMax   float64 `yaml:"pctOfGainMax" json:"pctOfGainMax"`
	Floor          float64 `yaml:"floor" json:"floor"`
	CapPctOfWallet float64 `yaml:"capPctOfWallet" json:"capPctOfWallet"`
}

type RepDamage struct {
	City    float64 `yaml:"city" json:"city"`
	CorpMin float64 `yaml:"corpMin" json:"corpMin"`
}

type Retaliation struct {
	Base                    float64                 `yaml:"base" json:"base"`
	PerLevel                float64                 `yaml:"perLevel" json:"perLevel"`
	HeatBonusFrom           float64                 `yaml:"heatBonusFrom" json:"heatBonusFrom"`
	HeatBonusPer20          float64                 `yaml:"heatBonusPer20" json:"heatBonusPer20"`
	CorpMul                 float64                 `yaml:"corpMul" json:"corpMul"`
	CityMul                 float64                 `yaml:"cityMul" json:"cityMul"`
	StealthSkill            string                  `yaml:"stealthSkill" json:"stealthSkill"`
	StealthMitigationPerLvl float64                 `yaml:"stealthMitigationPerLvl" json:"stealthMitigationPerLvl"`
	Min                     float64                 `yaml:"min" json:"min"`
	Max                     float64                 `yaml:"max" json:"max"`
	HeatDamage              HeatDamage              `yaml:"heatDamage" json:"heatDamage"`
	CreditDamage            CreditDamage            `yaml:"creditDamage" json:"creditDamage"`
	RepDamage               RepDamage               `yaml:"repDamage" json:"repDamage"`
	PressureWindow          time.Duration           `yaml:"pressureWindow" json:"pressureWindow"`
	PressurePerAttempt      float64                 `yaml:"pressurePerAttempt" json:"pressurePerAttempt"`
	StreakThreshold         int                     `yaml:"streakThreshold" json:"streakThreshold"`
	StreakBonus             float64                 `yaml:"streakBonus" json:"streakBonus"`
	DmgPressurePerAttempt   float64                 `yaml:"dmgPressurePerAttempt" json:"dmgPressurePerAttempt"`
	DmgPressureMaxAttempts  int                     `yaml:"dmgPressureMaxAttempts" json:"dmgPressureMaxAttempts"`
	EventPressure           map[string]PressureRule `yaml:"eventPressure" json:"eventPressure"`
}

type Economy struct {
	Base              float64       `yaml:"base" json:"base"`
	HeatTaxMax        float64       `yaml:"heatTaxMax" json:"heatTaxMax"`
	RepeatWindow      time.Duration `yaml:"repeatWindow" json:"repeatWindow"`
	RepeatDecay       float64       `yaml:"repeatDecay" json:"repeatDecay"`
	RepeatMin         float64       `yaml:"repeatMin" json:"repeatMin"`
	CityMul           float64       `yaml:"cityMul" json:"cityMul"`
	CorpMul           float64       `yaml:"corpMul" json:"corpMul"`
	MissionMul        float64       `yaml:"missionMul" json:"missionMul"`
	RepRewardPerPoint float64       `yaml:"repRewardPerPoint" json:"repRewardPerPoint"`
	GearSuccessFactor float64       `yaml:"gearSuccessFactor" json:"gearSuccessFactor"`
}

type BlackMarket struct {
	RepBonusPerPoint float64 `yaml:"repBonusPerPoint" json:"repBonusPerPoint"`
	RepBonusCap      float64 `yaml:"repBonusCap" json:"repBonusCap"`
}

// Actions holds the scan/hack constants that are not part of a subsystem.
type Actions struct {
	ScanDelay         time.Duration `yaml:"scanDelay" json:"scanDelay"`
	HackDelayBase     time.Duration `yaml:"hackDelayBase" json:"hackDelayBase"`
	HackDelayPerCPU   time.Duration `yaml:"hackDelayPerCPU" json:"hackDelayPerCPU"`
	HeatCap           float64       `yaml:"heatCap" json:"heatCap"`
	Lockout           time.Duration `yaml:"lockout" json:"lockout"`
	LockoutHeatRefund float64       `yaml:"lockoutHeatRefund" json:"lockoutHeatRefund"`
	FailHeatBase      float64       `yaml:"failHeatBase" json:"failHeatBase"`
	FailHeatMin       float64       `yaml:"failHeatMin" json:"failHeatMin"`
	BlackIceLossPct   float64       `yaml:"blackIceLossPct" json:"blackIceLossPct"`
	BlackIceLossCap   float64       `yaml:"blackIceLossCap" json:"blackIceLossCap"`
	XPBase            int           `yaml:"xpBase" json:"xpBase"`
	XPPerLevel        int           `yaml:"xpPerLevel" json:"xpPerLevel"`
	XPPerSkillPoint   int           `yaml:"xpPerSkillPoint" json:"xpPerSkillPoint"`
}

// Ticks configures the background timers.
type Ticks struct {
	PassiveIncomeEvery time.Duration `yaml:"passiveIncomeEvery" json:"passiveIncomeEvery"`
	HeatDecayEvery     time.Duration `yaml:"heatDecayEvery" json:"heatDecayEvery"`
	HeatDecayBase      float64       `yaml:"heatDecayBase" json:"heatDecayBase"`
	EventSpawnEvery    time.Duration `yaml:"eventSpawnEvery" json:"eventSpawnEvery"`
	EventBaseP         float64       `yaml:"eventBaseP" json:"eventBaseP"`
	EventHeatDivisor   float64       `yaml:"eventHeatDivisor" json:"eventHeatDivisor"`
	EventMaxP          float64       `yaml:"eventMaxP" json:"eventMaxP"`
	EventDuration      time.Duration `yaml:"eventDuration" json:"eventDuration"`
}

// DefaultTuning returns the shipped balance.
func DefaultTuning() Tuning {
	return Tuning{
		Start: Start{
			Credits:  120,
			Items:    []string{"deck_mk1"},
			Programs: []string{"brute"},
		},
		Probability: Probability{
			MinChance:             0.05,
			DefensePerServerLevel: 12,
			HardenedTags:          []string{"Black", "Adaptive"},
			BlackIceTag:           "Black",
		},
		Adaptive: Adaptive{
			TriggerAt:                 0.90,
			ScanTriggerAt:             0.95,
			OnScanChance:              0.70,
			IcePerLevel:               10,
			Cooldown:                  5 * time.Minute,
			MaxLevels:                 10,
			MinDrop:                   0.05,
			MaxBurstLevels:            4,
			MulPerLevel:               0.94,
			CapDropPerLevel:           0.03,
			CapCeiling:                0.95,
			CapFloor:                  0.65,
			StampOnGuardFailure:       true,
			FailHeatPerLevel:          0.25,
			RetaliationChancePerLevel: 0.05,
			RetaliationDamagePerLevel: 0.10,
		},
		Trace: Trace{
			Window:          8 * time.Minute,
			Base:            0.10,
			PerScan:         0.06,
			HeatBonusFrom:   35,
			HeatPer20Bonus:  0.05,
			CorpMul:         1.10,
			CityMul:         0.90,
			MaxP:            0.80,
			LevelByAttempts: []int{0, 1, 1, 2, 2, 3, 3, 3},
			Durations: map[int]time.Duration{
				1: 45 * time.Second,
				2: 70 * time.Second,
				3: 100 * time.Second,
			},
			DefaultDuration: time.Minute,
			Effects: TraceEffects{
				IcePerLevel:            5,
				ChanceMinusPerLevel:    0.05,
				HeatAttemptAddPerLevel: 2,
			},
			ScanPanic: ScanPanic{
				P:         0.20,
				HeatSpike: map[int]float64{1: 6, 2: 10, 3: 14},
				Lockout: map[int]time.Duration{
					1: 2 * time.Second,
					2: 3500 * time.Millisecond,
					3: 5 * time.Second,
				},
			},
		},
		Retaliation: Retaliation{
			Base:                    0.20,
			PerLevel:                0.04,
			HeatBonusFrom:           30,
			HeatBonusPer20:          0.06,
			CorpMul:                 1.15,
			CityMul:                 1.00,
			StealthSkill:            "stealth",
			StealthMitigationPerLvl: 0.008,
			Min:                     0.08,
			Max:                     0.75,
			HeatDamage:              HeatDamage{Base: 8, PerLevel: 3, CityMul: 1.10, CorpMul: 1.00},
			CreditDamage:            CreditDamage{PctOfGainMin: 0.35, PctOfGainMax: 0.65, Floor: 15, CapPctOfWallet: 0.20},
			RepDamage:               RepDamage{City: 1, CorpMin: 2},
			PressureWindow:          12 * time.Minute,
			PressurePerAttempt:      0.02,
			StreakThreshold:         5,
			StreakBonus:             0.10,
			DmgPressurePerAttempt:   0.03,
			DmgPressureMaxAttempts:  8,
			EventPressure: map[string]PressureRule{
				"audit":      {Scope: ScopeCorp, ChanceAdd: 0.12, HeatMul: 1.15, CredMul: 1},
				"city_sweep": {Scope: ScopeCity, ChanceAdd: 0.12, HeatMul: 1.40, CredMul: 1},
				"bounty":     {Scope: ScopeCorp, ChanceAdd: 0.10, HeatMul: 1, CredMul: 1.20},
			},
		},
		Economy: Economy{
			Base:              0.60,
			HeatTaxMax:        0.45,
			RepeatWindow:      10 * time.Minute,
			RepeatDecay:       0.18,
			RepeatMin:         0.35,
			CityMul:           0.90,
			CorpMul:           1.00,
			MissionMul:        0.85,
			RepRewardPerPoint: 0.02,
			GearSuccessFactor: 0.2,
		},
		BlackMarket: BlackMarket{
			RepBonusPerPoint: 0.02,
			RepBonusCap:      1.00,
		},
		Actions: Actions{
			ScanDelay:         350 * time.Millisecond,
			HackDelayBase:     300 * time.Millisecond,
			HackDelayPerCPU:   150 * time.Millisecond,
			HeatCap:           100,
			Lockout:           10 * time.Second,
			LockoutHeatRefund: 30,
			FailHeatBase:      14,
			FailHeatMin:       4,
			BlackIceLossPct:   0.05,
			BlackIceLossCap:   120,
			XPBase:            8,
			XPPerLevel:        3,
			XPPerSkillPoint:   100,
		},
		Ticks: Ticks{
			PassiveIncomeEvery: time.Second,
			HeatDecayEvery:     1500 * time.Millisecond,
			HeatDecayBase:      1,
			EventSpawnEvery:    12 * time.Second,
			EventBaseP:         0.05,
			EventHeatDivisor:   300,
			EventMaxP:          0.35,
			EventDuration:      30 * time.Second,
		},
	}
}
