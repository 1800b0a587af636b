package ingest

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAnalyzePhone_IndiaMobile(t *testing.T) {
	cases := []string{
		"9876543210",
		"91 98765 43210",
		"+91-9876543210",
	}
	for _, raw := range cases {
		info := AnalyzePhone(raw)
		require.NotNil(t, info, raw)
		require.Equal(t, "+91 98765 43210", info.Formatted, raw)
		require.Equal(t, "India", info.Country)
		require.Equal(t, "IN", info.Region)
		require.True(t, info.IsValid)
	}
}

func TestAnalyzePhone_USNanp(t *testing.T) {
	cases := []string{
		"4155550147",
		"1-415-555-0147",
		"(415) 555-0147",
	}
	for _, raw := range cases {
		info := AnalyzePhone(raw)
		require.NotNil(t, info, raw)
		require.Equal(t, "+1 (415) 555-0147", info.Formatted, raw)
		require.Equal(t, "United States", info.Country)
		require.Equal(t, "US", info.Region)
		require.True(t, info.IsValid)
	}
}

// 规范化后的号码再分析一遍，结论必须稳定
func TestAnalyzePhone_FormattedIsStable(t *testing.T) {
	for _, raw := range []string{"9876543210", "415-555-0147"} {
		first := AnalyzePhone(raw)
		require.NotNil(t, first)
		second := AnalyzePhone(first.Formatted)
		require.NotNil(t, second)
		require.Equal(t, first.Formatted, second.Formatted)
		require.Equal(t, first.Region, second.Region)
		require.Equal(t, first.IsValid, second.IsValid)
	}
}

// 0/2 开头：按不透明号码处理，不做国家重排
func TestAnalyzePhone_OpaquePrefixes(t *testing.T) {
	info := AnalyzePhone("020 7946 0958")
	require.NotNil(t, info)
	require.Equal(t, "Unknown", info.Country)
	require.Equal(t, "XX", info.Region)
	require.True(t, info.IsValid) // >=8 位

	info = AnalyzePhone("0123456")
	require.NotNil(t, info)
	require.Equal(t, "XX", info.Region)
	require.False(t, info.IsValid) // 7 位，不透明且不足 8

	// 2 开头的 NANP 区号同样落在不透明分支
	info = AnalyzePhone("2125550147")
	require.NotNil(t, info)
	require.Equal(t, "Unknown", info.Country)
	require.True(t, info.IsValid)
}

func TestAnalyzePhone_NotAPhone(t *testing.T) {
	require.Nil(t, AnalyzePhone(""))
	require.Nil(t, AnalyzePhone("12345"))
	require.Nil(t, AnalyzePhone("see notes"))
	// 6-7 位但不匹配任何模式、也到不了 8 位不透明门槛
	require.Nil(t, AnalyzePhone("777777"))
}

func TestAnalyzePhone_OpaqueValidity(t *testing.T) {
	// 8-9 位：接受为号码但标记无效
	info := AnalyzePhone("77777777")
	require.NotNil(t, info)
	require.False(t, info.IsValid)

	// >=10 位的未知模式：有效
	info = AnalyzePhone("7777777777777")
	require.NotNil(t, info)
	require.True(t, info.IsValid)
}

func TestDigitCount(t *testing.T) {
	require.Equal(t, 0, DigitCount("abc"))
	require.Equal(t, 10, DigitCount("+91 98765-43210 ext"))
}
