// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package synth

// PriorityGenes are the cancer genes the monitor targets.
var PriorityGenes = []string{
	"TP53", "KRAS", "EGFR", "PIK3CA", "BRAF", "BRCA1", "BRCA2", "MYC", "PTEN",
	"ALK", "RET", "ROS1", "MET", "ERBB2", "FGFR1", "FGFR2", "FGFR3", "IDH1",
	"IDH2", "JAK2", "KIT", "PDGFRA", "CDK4", "CDK6", "CDKN2A", "CTNNB1",
	"NOTCH1", "RB1", "STK11", "VHL", "ATM", "ATR", "CHEK1", "CHEK2", "MDM2",
	"AKT1", "HRAS", "NRAS", "APC", "NF1", "FBXW7", "SMAD4", "TSC1", "TSC2",
	"BAX", "BCL2", "ARID1A", "POLE", "MLH1", "MSH2", "PALB2", "RAD51",
}

// HumanGenes is the wider gene panel used for library imports.
var HumanGenes = dedupe(
	// cancer
	"TP53", "KRAS", "EGFR", "PIK3CA", "BRAF", "BRCA1", "BRCA2", "MYC", "PTEN", "ALK",
	"RET", "ROS1", "MET", "ERBB2", "FGFR1", "FGFR2", "FGFR3", "IDH1", "IDH2", "JAK2",
	"KIT", "PDGFRA", "CDK4", "CDK6", "CDKN2A", "CTNNB1", "FBXW7", "NOTCH1", "RB1", "STK11",
	"VHL", "ATM", "ATR", "CHEK1", "CHEK2", "MDM2", "BAX", "BCL2", "ARID1A", "SMAD4",
	"TSC1", "TSC2", "NF1", "NF2", "APC", "POLE", "POLD1", "MLH1", "MSH2", "MSH6",
	"PMS2", "BRIP1", "PALB2", "RAD51", "ATRX", "DAXX", "SETD2", "KDM5C", "KDM6A",
	// essential
	"POLR2A", "POLR2B", "PSMC1", "PSMC2", "RPL3", "RPL4", "RPS3", "RPS6",
	"SF3B1", "U2AF1", "CDC20", "CDC27", "MCM2", "MCM3", "ORC1", "ORC2",
	"TUBA1A", "TUBB", "ACTB", "GAPDH", "HRAS", "NRAS", "AKT1", "AKT2",
	"MTOR", "RPTOR", "RICTOR", "MAP2K1", "MAP2K2", "MAPK1", "MAPK3",
	// cell cycle
	"CCNA1", "CCNA2", "CCNB1", "CCNB2", "CCND1", "CCND2", "CCND3", "CCNE1", "CCNE2",
	"CDC25A", "CDC25B", "CDC25C", "CDK1", "CDK2", "CDK7", "CDKN1A", "CDKN1B", "CDKN2B",
	// DNA repair
	"XRCC1", "XRCC2", "XRCC3", "XRCC4", "XRCC5", "XRCC6", "LIG1", "LIG3", "LIG4",
	"PRKDC", "DCLRE1C", "RAG1", "RAG2", "ERCC1", "ERCC2", "XPC", "XPA", "DDB2",
	// kinases
	"AKT3", "GSK3B", "CSNK1A1", "CSNK2A1", "PRKCA", "PRKCB", "PRKCD", "MAPK8",
	"MAPK9", "MAPK14", "RAF1", "ARAF", "TBK1", "IKBKE", "JAK1", "JAK3", "TYK2",
	// transcription factors
	"MYCN", "MYCL", "JUN", "FOS", "STAT3", "STAT5A", "STAT5B", "NFKB1",
	"NFKB2", "REL", "RELA", "RELB", "TP63", "TP73", "E2F1", "E2F3", "E2F4",
	// metabolism
	"HK1", "HK2", "PFKM", "PFKL", "ALDOA", "PGK1", "ENO1", "PKM",
	"LDHA", "LDHB", "SLC2A1", "SLC2A3", "G6PD", "PHGDH",
	// apoptosis
	"BCL2L1", "BCL2L2", "MCL1", "BID", "BIK", "BAD", "CASP3", "CASP8", "CASP9",
	"CASP7", "FADD", "FAS", "TNFRSF1A", "TRADD", "RIPK1", "BIRC2", "BIRC3", "XIAP",
	// chromatin
	"EZH2", "SUZ12", "EED", "KMT2A", "KMT2D", "KDM1A", "KDM4A", "KDM5A",
	"SMARCA4", "SMARCB1", "ARID1B", "ARID2", "PBRM1", "BAP1",
)

// CellLines are the context labels attached to some records.
var CellLines = []string{
	"HEK293T", "HeLa", "MCF-7", "A549", "HCT116", "U2OS", "K562",
	"PC-3", "MDA-MB-231", "HepG2", "SKOV3", "HT-29", "Jurkat",
	"HAP1", "RPE1", "HMEC", "A375", "H1299", "SW480", "LNCaP", "HuH-7",
}

func dedupe(genes ...string) []string {
	seen := make(map[string]bool, len(genes))
	out := make([]string, 0, len(genes))
	for _, g := range genes {
		if !seen[g] {
			seen[g] = true
			out = append(out, g)
		}
	}
	return out
}
