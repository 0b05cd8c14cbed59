package annotations

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shepherrrd/efmigrate/internal/models"
)

func serialize(t *testing.T, indexes ...IndexAttribute) string {
	t.Helper()
	text, err := IndexSerializer{}.Serialize(IndexAnnotationName, NewIndexAnnotation(indexes...))
	require.NoError(t, err)
	return text
}

func deserialize(t *testing.T, text string) *IndexAnnotation {
	t.Helper()
	value, err := IndexSerializer{}.Deserialize(IndexAnnotationName, text)
	require.NoError(t, err)
	annotation, ok := value.(*IndexAnnotation)
	require.True(t, ok)
	return annotation
}

func ordered(t *testing.T, a IndexAttribute, order int) IndexAttribute {
	t.Helper()
	a, err := a.WithOrder(order)
	require.NoError(t, err)
	return a
}

func TestSerializeSingleIndex(t *testing.T) {
	assert.Equal(t, "{ }", serialize(t, NewIndexAttribute("")))
	assert.Equal(t, "{ Name: EekyBear }", serialize(t, NewIndexAttribute("EekyBear")))
	assert.Equal(t, "{ Name: EekyBear, Order: 7 }", serialize(t, ordered(t, NewIndexAttribute("EekyBear"), 7)))
	assert.Equal(t, "{ Order: 8 }", serialize(t, ordered(t, NewIndexAttribute(""), 8)))
	assert.Equal(t, "{ IsClustered: True }", serialize(t, NewIndexAttribute("").Clustered(true)))
	assert.Equal(t, "{ IsUnique: True }", serialize(t, NewIndexAttribute("").Unique(true)))
	assert.Equal(t,
		"{ Name: EekyBear, Order: 7, IsClustered: False, IsUnique: False }",
		serialize(t, ordered(t, NewIndexAttribute("EekyBear"), 7).Clustered(false).Unique(false)))
}

func TestSerializeMultipleIndexes(t *testing.T) {
	expected := "{ }" +
		"{ Name: MrsPandy }" +
		"{ Name: EekyBear, Order: 7 }" +
		"{ Name: Splash, Order: 8 }" +
		"{ Name: Tarquin, IsClustered: False }" +
		"{ Name: MrsKoalie, IsUnique: False }" +
		"{ Name: EekyJnr, Order: 7, IsClustered: True, IsUnique: True }"

	actual := serialize(t,
		NewIndexAttribute(""),
		NewIndexAttribute("MrsPandy"),
		ordered(t, NewIndexAttribute("EekyBear"), 7),
		ordered(t, NewIndexAttribute("Splash"), 8),
		NewIndexAttribute("Tarquin").Clustered(false),
		NewIndexAttribute("MrsKoalie").Unique(false),
		ordered(t, NewIndexAttribute("EekyJnr"), 7).Clustered(true).Unique(true))

	assert.Equal(t, expected, actual)
	assert.Equal(t, expected, serialize(t, deserialize(t, expected).Indexes...))
}

func TestDeserializeSingleIndex(t *testing.T) {
	for _, text := range []string{
		"{ }",
		"{ Name: EekyBear }",
		"{ Name: EekyBear, Order: 7 }",
		"{ Order: 8 }",
		"{ IsClustered: True }",
		"{ IsUnique: True }",
		"{ Name: EekyBear, Order: 7, IsClustered: False, IsUnique: False }",
	} {
		assert.Equal(t, text, serialize(t, deserialize(t, text).Indexes...))
	}

	assert.Equal(t,
		"{ Name: EekyBear, Order: 7, IsClustered: False, IsUnique: False }",
		serialize(t, deserialize(t, " {  Name:  EekyBear ,  Order:  7 ,  IsClustered:  false ,  IsUnique:  FALSE  } ").Indexes...))
}

func TestDeserializeToleratesWhitespaceBetweenEntries(t *testing.T) {
	annotation := deserialize(t, "{ Name: A }  \t{ Name: B, Order: 88 }")
	require.Len(t, annotation.Indexes, 2)
	assert.Equal(t, "B", annotation.Indexes[1].Name)
	assert.Equal(t, 88, annotation.Indexes[1].Order)
}

func TestRoundTripNamesWithSpecialCharacters(t *testing.T) {
	assert.Equal(t,
		`{ Name: "\,'<>[]\,'\} }{ Name: "\,'<foo>[]\,'\} }`,
		serialize(t, deserialize(t, `{Name:"\,'<>[]\,'\}}{Name:"\,'<foo>[]\,'\}}`).Indexes...))

	assert.Equal(t,
		`{ Name: "\,'<>[]\,'\}, Order: 42 }{ Name: "\,'<foo>[]\,'\}, Order: 42 }`,
		serialize(t, deserialize(t, `{Name:"\,'<>[]\,'\},Order: 42}  { Name: "\,'<foo>[]\,'\},  Order: 42 }`).Indexes...))

	for _, name := range []string{`",'<>[],'`, `",'<>[]',`, `a}{b`, `back\slash`} {
		annotation := deserialize(t, serialize(t, ordered(t, NewIndexAttribute(name), 42)))
		require.Len(t, annotation.Indexes, 1)
		assert.Equal(t, name, annotation.Indexes[0].Name)
		assert.Equal(t, 42, annotation.Indexes[0].Order)
	}
}

func TestDeserializeRejectsMalformedInput(t *testing.T) {
	for _, text := range []string{
		"{ Name: }",
		"{ Name: EekyBear, Name: EekyBear }",
		"{ Order: 7, Order: 7 }",
		"{ IsClustered: True, IsClustered: True }",
		"{ IsUnique: True, IsUnique: False }",
		"{ Order: 7a7 }",
		"{ Order: -3 }",
		"{ Name: Eeky,Bear }",
		"{ Name: Eeky} {Bear }",
		"{ Order: }",
		"{ IsClustered:",
		"{ IsUnique:}",
		"{ IsUnique: Maybe }",
		"{ Order: 9876543210 }",
		"Name: EekyBear",
		"{ Name: A } x { Name: B }",
		"{ Name: A \\}",
	} {
		value, err := IndexSerializer{}.Deserialize(IndexAnnotationName, text)
		require.Error(t, err, text)
		assert.Nil(t, value, text)
		assert.True(t, errors.Is(err, ErrInvalidFormat), text)
		assert.Equal(t,
			"The string '"+text+"' cannot be deserialized by the IndexAnnotationSerializer because it is not in the expected format. The expected format is '{ Name: 'MyIndex', Order: 1 }'.",
			err.Error())
	}
}

func TestSerializerChecksArguments(t *testing.T) {
	s := IndexSerializer{}

	_, err := s.Serialize("", NewIndexAnnotation())
	assert.Equal(t, "The argument 'name' cannot be null, empty or contain only white space.", err.Error())

	_, err = s.Serialize(" ", NewIndexAnnotation())
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))

	_, err = s.Serialize(IndexAnnotationName, nil)
	var argErr *models.ArgumentError
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, "value", argErr.Param)

	_, err = s.Serialize(IndexAnnotationName, 42)
	require.True(t, errors.As(err, &argErr))
	assert.Contains(t, err.Error(), "int")

	_, err = s.Deserialize(" ", "{ }")
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, "name", argErr.Param)

	_, err = s.Deserialize(IndexAnnotationName, "\t")
	require.True(t, errors.As(err, &argErr))
	assert.Equal(t, "value", argErr.Param)
}

func TestNegativeOrderIsRejected(t *testing.T) {
	_, err := NewIndexAttribute("A").WithOrder(-1)
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))

	_, err = SerializeIndexAnnotation(NewIndexAnnotation(IndexAttribute{Name: "A", Order: -5}))
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))
}

func TestSerializeRejectsValuesThatDoNotRoundTrip(t *testing.T) {
	for _, name := range []string{" ", "\t", " Pad ", "Pad ", " Pad"} {
		_, err := SerializeIndexAnnotation(NewIndexAnnotation(NewIndexAttribute(name)))
		var argErr *models.ArgumentError
		require.True(t, errors.As(err, &argErr), "%q", name)
		assert.Equal(t, "name", argErr.Param)
	}

	_, err := NewIndexAttribute("A").WithOrder(1 << 40)
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))

	_, err = SerializeIndexAnnotation(NewIndexAnnotation(IndexAttribute{Name: "A", Order: 1 << 40}))
	assert.True(t, errors.Is(err, models.ErrInvalidArgument))

	annotation := deserialize(t, serialize(t, ordered(t, NewIndexAttribute("In ner"), math.MaxInt32)))
	require.Len(t, annotation.Indexes, 1)
	assert.Equal(t, "In ner", annotation.Indexes[0].Name)
	assert.Equal(t, math.MaxInt32, annotation.Indexes[0].Order)
}
