package catalog

import "codearena/internal/domain"

var seed = []domain.Challenge{
	{
		ID:          "fizzbuzz",
		Title:       "FizzBuzz",
		Description: "Return the FizzBuzz sequence from 1 to n joined with spaces.",
		Difficulty:  domain.DifficultyEasy,
		TestCases: []domain.TestCase{
			{Input: "3", Expected: "1 2 Fizz"},
			{Input: "5", Expected: "1 2 Fizz 4 Buzz"},
			{Input: "15", Expected: "1 2 Fizz 4 Buzz Fizz 7 8 Fizz Buzz 11 Fizz 13 14 FizzBuzz"},
		},
		StarterCode: "function fizzbuzz(n) {\n  // your code\n}\n",
	},
	{
		ID:          "palindrome",
		Title:       "Palindrome",
		Description: "Return true if the string reads the same backwards, ignoring case.",
		Difficulty:  domain.DifficultyEasy,
		TestCases: []domain.TestCase{
			{Input: "racecar", Expected: "true"},
			{Input: "Level", Expected: "true"},
			{Input: "arena", Expected: "false"},
		},
		StarterCode: "function isPalindrome(s) {\n  // your code\n}\n",
	},
	{
		ID:          "reverse-words",
		Title:       "Reverse Words",
		Description: "Reverse the order of words in a sentence.",
		Difficulty:  domain.DifficultyEasy,
		TestCases: []domain.TestCase{
			{Input: "hello world", Expected: "world hello"},
			{Input: "a b c", Expected: "c b a"},
		},
		StarterCode: "function reverseWords(s) {\n  // your code\n}\n",
	},
	{
		ID:          "two-sum",
		Title:       "Two Sum",
		Description: "Return indices of the two numbers that add up to target.",
		Difficulty:  domain.DifficultyMedium,
		TestCases: []domain.TestCase{
			{Input: "[2,7,11,15] 9", Expected: "[0,1]"},
			{Input: "[3,2,4] 6", Expected: "[1,2]"},
			{Input: "[3,3] 6", Expected: "[0,1]"},
		},
		StarterCode: "function twoSum(nums, target) {\n  // your code\n}\n",
	},
	{
		ID:          "balanced-brackets",
		Title:       "Balanced Brackets",
		Description: "Return true if every bracket in the string is properly closed.",
		Difficulty:  domain.DifficultyMedium,
		TestCases: []domain.TestCase{
			{Input: "([]{})", Expected: "true"},
			{Input: "([)]", Expected: "false"},
			{Input: "((", Expected: "false"},
		},
		StarterCode: "function isBalanced(s) {\n  // your code\n}\n",
	},
	{
		ID:          "longest-unique-substring",
		Title:       "Longest Unique Substring",
		Description: "Return the length of the longest substring without repeating characters.",
		Difficulty:  domain.DifficultyHard,
		TestCases: []domain.TestCase{
			{Input: "abcabcbb", Expected: "3"},
			{Input: "bbbbb", Expected: "1"},
			{Input: "pwwkew", Expected: "3"},
		},
		StarterCode: "function longestUnique(s) {\n  // your code\n}\n",
	},
	{
		ID:          "n-queens",
		Title:       "N-Queens",
		Description: "Return the number of distinct solutions to the n-queens puzzle.",
		Difficulty:  domain.DifficultyHard,
		TestCases: []domain.TestCase{
			{Input: "4", Expected: "2"},
			{Input: "6", Expected: "4"},
			{Input: "8", Expected: "92"},
		},
		StarterCode: "function totalNQueens(n) {\n  // your code\n}\n",
	},
}
