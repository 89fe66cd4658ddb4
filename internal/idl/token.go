// © 2023 Microglot LLC
//
// SPDX-License-Identifier: Apache-2.0

package idl

import "fmt"

type TokenType uint16

const (
	TokenTypeUnknown    TokenType = 0
	TokenTypeIdentifier TokenType = 1
	TokenTypeInteger    TokenType = 2
	TokenTypeFloat      TokenType = 3
	TokenTypeString     TokenType = 4
	TokenTypeBool       TokenType = 5
	TokenTypeVersion    TokenType = 6
	TokenTypeComment    TokenType = 7
	TokenTypeNewline    TokenType = 8
	TokenTypeComma      TokenType = 9
	TokenTypeSemicolon  TokenType = 10
	TokenTypeEqual      TokenType = 11
	TokenTypeEOF        TokenType = 12

	// envelope and block keywords
	TokenTypeKeywordATFFile      TokenType = 20
	TokenTypeKeywordATFEnd       TokenType = 21
	TokenTypeKeywordFiles        TokenType = 22
	TokenTypeKeywordEndFiles     TokenType = 23
	TokenTypeKeywordComponent    TokenType = 24
	TokenTypeKeywordEndComponent TokenType = 25
	TokenTypeKeywordApplElem     TokenType = 26
	TokenTypeKeywordEndApplElem  TokenType = 27
	TokenTypeKeywordApplAttr     TokenType = 28
	TokenTypeKeywordInstElem     TokenType = 29
	TokenTypeKeywordEndInstElem  TokenType = 30
	TokenTypeKeywordInclude      TokenType = 31
	TokenTypeKeywordUndefined    TokenType = 32

	// application attribute keywords
	TokenTypeKeywordBaseType     TokenType = 40
	TokenTypeKeywordBaseAttr     TokenType = 41
	TokenTypeKeywordRefTo        TokenType = 42
	TokenTypeKeywordRefType      TokenType = 43
	TokenTypeKeywordCardinality  TokenType = 44
	TokenTypeKeywordDatatype     TokenType = 45
	TokenTypeKeywordMany         TokenType = 46
	TokenTypeKeywordObligatory   TokenType = 47
	TokenTypeKeywordUnique       TokenType = 48
	TokenTypeKeywordAutogenerate TokenType = 49

	// binary component keywords
	TokenTypeKeywordType        TokenType = 60
	TokenTypeKeywordLength      TokenType = 61
	TokenTypeKeywordIniOffset   TokenType = 62
	TokenTypeKeywordBlockSize   TokenType = 63
	TokenTypeKeywordValPerBlock TokenType = 64
	TokenTypeKeywordValOffsets  TokenType = 65
	TokenTypeKeywordDescription TokenType = 66

	// data types
	TokenTypeDTBlob              TokenType = 80
	TokenTypeDTBoolean           TokenType = 81
	TokenTypeDTByte              TokenType = 82
	TokenTypeDTByteStr           TokenType = 83
	TokenTypeDTComplex           TokenType = 84
	TokenTypeDTDate              TokenType = 85
	TokenTypeDTDComplex          TokenType = 86
	TokenTypeDTDouble            TokenType = 87
	TokenTypeDTEnum              TokenType = 88
	TokenTypeDTExternalReference TokenType = 89
	TokenTypeDTLong              TokenType = 90
	TokenTypeDTLongLong          TokenType = 91
	TokenTypeDTFloat             TokenType = 92
	TokenTypeDTShort             TokenType = 93
	TokenTypeDTString            TokenType = 94
	TokenTypeDTUnknown           TokenType = 95
	TokenTypeDSString            TokenType = 96
)

// Keywords maps reserved words to their token type. Keywords are case
// sensitive.
var Keywords = map[string]TokenType{
	"ATF_FILE":     TokenTypeKeywordATFFile,
	"ATF_END":      TokenTypeKeywordATFEnd,
	"FILES":        TokenTypeKeywordFiles,
	"ENDFILES":     TokenTypeKeywordEndFiles,
	"COMPONENT":    TokenTypeKeywordComponent,
	"ENDCOMPONENT": TokenTypeKeywordEndComponent,
	"APPLELEM":     TokenTypeKeywordApplElem,
	"ENDAPPLELEM":  TokenTypeKeywordEndApplElem,
	"APPLATTR":     TokenTypeKeywordApplAttr,
	"INSTELEM":     TokenTypeKeywordInstElem,
	"ENDINSTELEM":  TokenTypeKeywordEndInstElem,
	"INCLUDE":      TokenTypeKeywordInclude,
	"UNDEFINED":    TokenTypeKeywordUndefined,

	"BASETYPE":     TokenTypeKeywordBaseType,
	"BASEATTR":     TokenTypeKeywordBaseAttr,
	"REF_TO":       TokenTypeKeywordRefTo,
	"REF_TYPE":     TokenTypeKeywordRefType,
	"CARDINALITY":  TokenTypeKeywordCardinality,
	"DATATYPE":     TokenTypeKeywordDatatype,
	"MANY":         TokenTypeKeywordMany,
	"OBLIGATORY":   TokenTypeKeywordObligatory,
	"UNIQUE":       TokenTypeKeywordUnique,
	"AUTOGENERATE": TokenTypeKeywordAutogenerate,

	"TYPE":        TokenTypeKeywordType,
	"LENGTH":      TokenTypeKeywordLength,
	"INIOFFSET":   TokenTypeKeywordIniOffset,
	"BLOCKSIZE":   TokenTypeKeywordBlockSize,
	"VALPERBLOCK": TokenTypeKeywordValPerBlock,
	"VALOFFSETS":  TokenTypeKeywordValOffsets,
	"DESCRIPTION": TokenTypeKeywordDescription,

	"DT_BLOB":              TokenTypeDTBlob,
	"DT_BOOLEAN":           TokenTypeDTBoolean,
	"DT_BYTE":              TokenTypeDTByte,
	"DT_BYTESTR":           TokenTypeDTByteStr,
	"DT_COMPLEX":           TokenTypeDTComplex,
	"DT_DATE":              TokenTypeDTDate,
	"DT_DCOMPLEX":          TokenTypeDTDComplex,
	"DT_DOUBLE":            TokenTypeDTDouble,
	"DT_ENUM":              TokenTypeDTEnum,
	"DT_EXTERNALREFERENCE": TokenTypeDTExternalReference,
	"DT_LONG":              TokenTypeDTLong,
	"DT_LONGLONG":          TokenTypeDTLongLong,
	"DT_FLOAT":             TokenTypeDTFloat,
	"DT_SHORT":             TokenTypeDTShort,
	"DT_STRING":            TokenTypeDTString,
	"DT_UNKNOWN":           TokenTypeDTUnknown,
	"DS_STRING":            TokenTypeDSString,
}

var tokenNames = func() map[TokenType]string {
	names := map[TokenType]string{
		TokenTypeUnknown:    "UNKNOWN",
		TokenTypeIdentifier: "IDENTIFIER",
		TokenTypeInteger:    "INTEGER",
		TokenTypeFloat:      "FLOAT",
		TokenTypeString:     "STRING",
		TokenTypeBool:       "BOOL",
		TokenTypeVersion:    "VERSION",
		TokenTypeComment:    "COMMENT",
		TokenTypeNewline:    "NEWLINE",
		TokenTypeComma:      "','",
		TokenTypeSemicolon:  "';'",
		TokenTypeEqual:      "'='",
		TokenTypeEOF:        "EOF",
	}
	for word, kind := range Keywords {
		names[kind] = word
	}
	return names
}()

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", uint16(t))
}

// IsDatatype reports whether t is one of the DT_* or DS_* keywords.
func (t TokenType) IsDatatype() bool {
	return t >= TokenTypeDTBlob && t <= TokenTypeDSString
}
