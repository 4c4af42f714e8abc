/*
 * Copyright 2025 The QuestFlow Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package engine

import (
	"testing"

	"github.com/questflow/questflow/api/types"
	"github.com/questflow/questflow/test/assert"
)

// evaluatorCtx builds a questionnaire with text, number, yes/no and
// multi-choice parents plus one child question carrying the rule under test.
func evaluatorCtx(t *testing.T, rule types.ConditionalRule) (*QuestionnaireCtx, *QuestionCtx, *ruleCtx) {
	t.Helper()
	active := true
	def := &types.Questionnaire{
		Category: types.Category{ID: "test", Name: "Test"},
		Metadata: types.QuestionnaireMetadata{
			Questions: []*types.Question{
				{ID: "p_text", Text: "Text parent", Type: types.ShortText, DisplayOrder: 1, IsActive: &active},
				{ID: "p_num", Text: "Number parent", Type: types.Number, DisplayOrder: 2},
				{ID: "p_yn", Text: "YesNo parent", Type: types.YesNo, DisplayOrder: 3},
				{
					ID: "p_multi", Text: "Multi parent", Type: types.MultiChoice, DisplayOrder: 4,
					Options: []types.QuestionOption{
						{Value: "roofing", Text: "Roofing", Order: 1},
						{Value: "tiling", Text: "Tiling", Order: 2},
						{Value: "guttering", Text: "Guttering", Order: 3},
					},
				},
				{
					ID: "child", Text: "Child", Type: types.ShortText, DisplayOrder: 5,
					ConditionalLogic: types.ConditionalLogic{Enabled: true, Rules: []types.ConditionalRule{rule}},
				},
			},
		},
	}
	ctx, err := InitQuestionnaireCtx(types.NewConfig(), def)
	assert.Nil(t, err)
	child, ok := ctx.QuestionByID("child")
	assert.True(t, ok)
	assert.Equal(t, 1, len(child.rules))
	return ctx, child, child.rules[0]
}

func TestEvaluateEquals(t *testing.T) {
	t.Run("TextCaseInsensitive", func(t *testing.T) {
		ctx, child, r := evaluatorCtx(t, types.ConditionalRule{
			ParentQuestionID: "p_text", TriggerCondition: types.Equals, TriggerValue: "Metal Roof",
		})
		assert.True(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_text": "  metal roof "}))
		assert.False(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_text": "tile roof"}))
	})

	t.Run("NumericNormalization", func(t *testing.T) {
		ctx, child, r := evaluatorCtx(t, types.ConditionalRule{
			ParentQuestionID: "p_num", TriggerCondition: types.Equals, TriggerValue: "5",
		})
		assert.True(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_num": 5.0}))
		assert.True(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_num": "5.0"}))
		assert.False(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_num": 6}))
	})

	t.Run("AbsentFailsClosed", func(t *testing.T) {
		ctx, child, r := evaluatorCtx(t, types.ConditionalRule{
			ParentQuestionID: "p_text", TriggerCondition: types.Equals, TriggerValue: "x",
		})
		assert.False(t, ctx.evaluateRule(child, r, map[string]interface{}{}))
	})

	t.Run("NotEqualsAbsentAlsoFailsClosed", func(t *testing.T) {
		ctx, child, r := evaluatorCtx(t, types.ConditionalRule{
			ParentQuestionID: "p_text", TriggerCondition: types.NotEquals, TriggerValue: "x",
		})
		assert.False(t, ctx.evaluateRule(child, r, map[string]interface{}{}))
		assert.True(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_text": "y"}))
	})

	t.Run("YesNoAnswer", func(t *testing.T) {
		ctx, child, r := evaluatorCtx(t, types.ConditionalRule{
			ParentQuestionID: "p_yn", TriggerCondition: types.Equals, TriggerValue: "true",
		})
		assert.True(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_yn": true}))
		assert.False(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_yn": false}))
	})
}

func TestEvaluateContains(t *testing.T) {
	t.Run("ChoiceAnyOf", func(t *testing.T) {
		ctx, child, r := evaluatorCtx(t, types.ConditionalRule{
			ParentQuestionID: "p_multi", TriggerCondition: types.Contains,
			TriggerValues: []string{"roofing", "guttering"},
		})
		assert.True(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_multi": []string{"tiling", "roofing"}}))
		assert.False(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_multi": []string{"tiling"}}))
	})

	t.Run("TextSubstring", func(t *testing.T) {
		ctx, child, r := evaluatorCtx(t, types.ConditionalRule{
			ParentQuestionID: "p_text", TriggerCondition: types.Contains, TriggerValue: "LEAK",
		})
		assert.True(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_text": "roof leaks badly"}))
		assert.False(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_text": "broken tile"}))
	})

	t.Run("NotContains", func(t *testing.T) {
		ctx, child, r := evaluatorCtx(t, types.ConditionalRule{
			ParentQuestionID: "p_multi", TriggerCondition: types.NotContains,
			TriggerValues: []string{"roofing"},
		})
		assert.True(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_multi": []string{"tiling"}}))
		assert.False(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_multi": []string{"roofing"}}))
		// absent data never matches, not even the negation
		assert.False(t, ctx.evaluateRule(child, r, map[string]interface{}{}))
	})
}

func TestEvaluateNumericComparison(t *testing.T) {
	t.Run("GreaterThan", func(t *testing.T) {
		ctx, child, r := evaluatorCtx(t, types.ConditionalRule{
			ParentQuestionID: "p_num", TriggerCondition: types.GreaterThan, TriggerValue: "50",
		})
		assert.True(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_num": 51}))
		assert.False(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_num": 50}))
	})

	t.Run("LessThan", func(t *testing.T) {
		ctx, child, r := evaluatorCtx(t, types.ConditionalRule{
			ParentQuestionID: "p_num", TriggerCondition: types.LessThan, TriggerValue: "50",
		})
		assert.True(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_num": "49.5"}))
		assert.False(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_num": 50}))
	})

	t.Run("UnparseableIsSilentFalse", func(t *testing.T) {
		ctx, child, r := evaluatorCtx(t, types.ConditionalRule{
			ParentQuestionID: "p_num", TriggerCondition: types.GreaterThan, TriggerValue: "50",
		})
		assert.False(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_num": "quite a lot"}))
	})
}

func TestEvaluateEmptiness(t *testing.T) {
	t.Run("IsEmpty", func(t *testing.T) {
		ctx, child, r := evaluatorCtx(t, types.ConditionalRule{
			ParentQuestionID: "p_text", TriggerCondition: types.IsEmpty,
		})
		assert.True(t, ctx.evaluateRule(child, r, map[string]interface{}{}))
		assert.True(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_text": ""}))
		assert.True(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_text": []string{}}))
		assert.False(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_text": "x"}))
	})

	t.Run("IsNotEmptyIsExactComplement", func(t *testing.T) {
		ctx, child, r := evaluatorCtx(t, types.ConditionalRule{
			ParentQuestionID: "p_text", TriggerCondition: types.IsNotEmpty,
		})
		for _, answers := range []map[string]interface{}{
			{},
			{"p_text": ""},
			{"p_text": []string{}},
			{"p_text": "x"},
		} {
			empty := types.ConditionalRule{ParentQuestionID: "p_text", TriggerCondition: types.IsEmpty}
			ctxEmpty, childEmpty, rEmpty := evaluatorCtx(t, empty)
			assert.Equal(t,
				ctxEmpty.evaluateRule(childEmpty, rEmpty, answers),
				!ctx.evaluateRule(child, r, answers))
		}
	})
}

func TestEvaluateDanglingParent(t *testing.T) {
	var warned bool
	active := true
	def := &types.Questionnaire{
		Category: types.Category{ID: "test"},
		Metadata: types.QuestionnaireMetadata{
			Questions: []*types.Question{
				{ID: "p", Text: "P", Type: types.ShortText, DisplayOrder: 1, IsActive: &active},
				{
					ID: "child", Text: "Child", Type: types.ShortText, DisplayOrder: 2,
					ConditionalLogic: types.ConditionalLogic{
						Enabled: true,
						Rules: []types.ConditionalRule{
							{ParentQuestionID: "ghost", TriggerCondition: types.IsEmpty},
						},
					},
				},
			},
		},
	}
	config := types.NewConfig(types.WithOnConfigWarning(func(categoryID, questionID, ruleID string, err error) {
		warned = true
	}))
	ctx, err := InitQuestionnaireCtx(config, def)
	assert.Nil(t, err)
	assert.True(t, warned)

	child, _ := ctx.QuestionByID("child")
	// even isEmpty fails closed on an unresolvable parent
	assert.False(t, ctx.evaluateRule(child, child.rules[0], map[string]interface{}{}))
}

func TestEvaluateExpressionRule(t *testing.T) {
	ctx, child, r := evaluatorCtx(t, types.ConditionalRule{
		ParentQuestionID: "p_num", TriggerCondition: types.Expression,
		Expression: `answers.p_num > 50 && answers.p_text == "loft"`,
	})
	assert.True(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_num": 51, "p_text": "loft"}))
	assert.False(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_num": 51}))
}

func TestEvaluateScriptRule(t *testing.T) {
	ctx, child, r := evaluatorCtx(t, types.ConditionalRule{
		ParentQuestionID: "p_multi", TriggerCondition: types.Script,
		Script: `return answers.p_multi != null && answers.p_multi.indexOf('roofing') >= 0;`,
	})
	assert.True(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_multi": []string{"roofing"}}))
	assert.False(t, ctx.evaluateRule(child, r, map[string]interface{}{"p_multi": []string{"tiling"}}))
	assert.False(t, ctx.evaluateRule(child, r, map[string]interface{}{}))
}
