package domain

import "strings"

// VendorCustom is the fallback vendor tag.
const VendorCustom = "custom"

// Vendor describes a known API vendor and the markers used to recognise it.
type Vendor struct {
	Name         string
	URLKeywords  []string
	KeyPrefixes  []string
	EnvPrefix    string
	Capabilities []string
}

// Vendors is the static lookup table, checked in order.
var Vendors = []Vendor{
	{
		Name:         "openai",
		URLKeywords:  []string{"openai.com", "openai"},
		KeyPrefixes:  []string{"sk-proj-", "sk-svcacct-"},
		EnvPrefix:    "OPENAI",
		Capabilities: []string{"vision", "function_calling", "stream"},
	},
	{
		Name:         "anthropic",
		URLKeywords:  []string{"anthropic.com", "claude"},
		KeyPrefixes:  []string{"sk-ant-"},
		EnvPrefix:    "ANTHROPIC",
		Capabilities: []string{"vision", "thinking", "stream"},
	},
	{
		Name:         "google",
		URLKeywords:  []string{"generativeai", "gemini", "googleapis", "google"},
		KeyPrefixes:  []string{"AIza"},
		EnvPrefix:    "GOOGLE",
		Capabilities: []string{"vision", "multimodal"},
	},
	{
		Name:         "deepseek",
		URLKeywords:  []string{"deepseek"},
		EnvPrefix:    "DEEPSEEK",
		Capabilities: []string{"vision", "reasoning"},
	},
	{
		Name:         "zhipu",
		URLKeywords:  []string{"zhipuai", "chatglm", "bigmodel.cn"},
		EnvPrefix:    "ZHIPU",
		Capabilities: []string{"vision"},
	},
	{
		Name:         "moonshot",
		URLKeywords:  []string{"moonshot", "kimi"},
		EnvPrefix:    "MOONSHOT",
		Capabilities: []string{"long_context"},
	},
}

// LookupVendor returns the vendor entry for name, falling back to the custom entry.
func LookupVendor(name string) Vendor {
	for _, v := range Vendors {
		if strings.EqualFold(v.Name, name) {
			return v
		}
	}
	return Vendor{Name: VendorCustom, EnvPrefix: "CUSTOM", Capabilities: []string{"stream"}}
}
